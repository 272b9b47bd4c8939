package main

import "github.com/varalys/contentguard/cmd/contentguard"

func main() { contentguard.Execute() }
