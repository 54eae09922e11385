// Smokerep - CPAN smoke report extractor
// Parse. Report. Done.
package main

func main() {
	Execute()
}
