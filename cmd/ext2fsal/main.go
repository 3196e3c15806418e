// Command ext2fsal is a thin wrapper around the namespace operations in
// package ext2fsal. It is not the focus of this module — argument parsing
// and process wiring live here so the library itself stays free of them.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dargueta/ext2fsal"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ext2fsal: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	imagePath := flag.String("image", "", "path to the ext2 image file")
	flag.CommandLine.Parse(os.Args[2:])
	args := flag.Args()

	if *imagePath == "" {
		log.Fatal("-image is required")
	}
	img, err := ext2fsal.Mount(ext2fsal.MountOptions{ImagePath: *imagePath})
	if err != nil {
		log.Fatal(err)
	}
	defer img.Unmount()

	if err := dispatch(img, os.Args[1], args); err != nil {
		log.Fatal(err)
	}
}

func dispatch(img *ext2fsal.Image, command string, args []string) error {
	switch command {
	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("mkdir requires exactly one path")
		}
		return errOrNil(img.Mkdir(args[0]))
	case "cp":
		if len(args) != 2 {
			return fmt.Errorf("cp requires a host source path and an image destination")
		}
		return errOrNil(img.CopyIn(args[0], args[1]))
	case "ln":
		if len(args) != 2 {
			return fmt.Errorf("ln requires a source and destination path")
		}
		return errOrNil(img.LinkHard(args[0], args[1]))
	case "ln-s":
		if len(args) != 2 {
			return fmt.Errorf("ln-s requires a target string and a destination path")
		}
		return errOrNil(img.SymLink(args[0], args[1]))
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("rm requires exactly one path")
		}
		return errOrNil(img.Unlink(args[0]))
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func errOrNil(err *ext2fsal.MutatorError) error {
	if err == nil {
		return nil
	}
	return err
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ext2fsal <mkdir|cp|ln|ln-s|rm> -image PATH ARGS...")
}
