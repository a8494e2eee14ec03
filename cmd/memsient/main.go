// Command memsient is the terminal dashboard for the Memsient memory
// platform: auth, memory graphs, ingestion, queries, API keys, and
// billing, plus a local dev backend.
package main

func main() {
	Execute()
}
