// Command meshup evaluates meshup scripts and exports the resulting parts.
package main

func main() {
	Execute()
}
