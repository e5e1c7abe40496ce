package main

import (
	"fmt"
	"os"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"

	"github.com/vertexpay/core/components/identity/internal/bootstrap"
)

func main() {
	libCommons.InitLocalEnvConfig()

	service, err := bootstrap.InitServers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize identity service: %v\n", err)
		os.Exit(1)
	}

	service.Run()
}
