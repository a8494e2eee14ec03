package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Al-aminI/memsient-go/memtest"
)

var (
	devAddr       string
	devAsyncDelay time.Duration
)

// devserver runs the in-process fake backend as a real HTTP server,
// useful for demos and for pointing the CLI at something local.
var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local fake backend for development",
	RunE: func(_ *cobra.Command, _ []string) error {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		srv := memtest.New(
			memtest.WithLogger(logger),
			memtest.WithAsyncDelay(devAsyncDelay),
		)
		fmt.Printf("Listening on http://%s\n", devAddr)
		fmt.Printf("Point the CLI at it with --base-url http://%s\n", devAddr)
		return http.ListenAndServe(devAddr, srv.Handler())
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devAddr, "addr", "127.0.0.1:8000", "listen address")
	devserverCmd.Flags().DurationVar(&devAsyncDelay, "async-delay", 2*time.Second, "how long async ingestion jobs stay in processing")
	rootCmd.AddCommand(devserverCmd)
}
