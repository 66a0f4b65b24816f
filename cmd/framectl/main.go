// Command framectl drives contiguous frame pools from a command script.
package main

func main() {
	execute()
}
