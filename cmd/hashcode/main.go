// Command hashcode prints a bcrypt hash of an admin access code, suitable
// for ADMIN_ACCESS_CODE so the plain code never sits in the environment.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	pkgauth "github.com/BradenHooton/svatba/pkg/auth"
)

func main() {
	code := ""
	if len(os.Args) > 1 {
		code = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "access code: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "failed to read access code:", err)
			os.Exit(1)
		}
		code = line
	}

	code = strings.TrimSpace(code)
	if code == "" {
		fmt.Fprintln(os.Stderr, "usage: hashcode <access-code>")
		os.Exit(2)
	}

	hash, err := pkgauth.HashAccessCode(code)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to hash access code:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
