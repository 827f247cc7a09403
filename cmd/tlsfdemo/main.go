// Command tlsfdemo is a small driver for exercising a tlsf.Pool from the
// command line.
package main

func main() {
	execute()
}
