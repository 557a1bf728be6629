//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

// Default target when mage is run without arguments.
var Default = Build

// Build compiles posetool into ./bin.
func Build() error {
	mg.Deps(Tidy)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/posetool", "./cmd/posetool"), withEnv("CGO_ENABLED", "0"), withStream())
	return err
}

// Tidy runs go mod tidy.
func Tidy() error {
	_, err := executeCmd("go", withArgs("mod", "tidy"))
	return err
}

// Vet runs go vet over every package.
func Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// Test runs the unit tests with the race detector.
func Test() error {
	mg.Deps(Vet)
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}
