// Command turbo derives program identities, inspects compiled programs and
// drives them from the command line.
package main

func main() {
	Execute()
}
