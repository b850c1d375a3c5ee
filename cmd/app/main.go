package main

import (
	"context"
	"fmt"
	"os"

	authservice "github.com/finere-dem/MaliTrans/internal/auth-service"
	"github.com/finere-dem/MaliTrans/internal/config"
	driverservice "github.com/finere-dem/MaliTrans/internal/driver-service"
	"github.com/finere-dem/MaliTrans/internal/mylogger"
	rideservice "github.com/finere-dem/MaliTrans/internal/ride-service"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	mylog, err := mylogger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "ride-service":
		err = rideservice.Execute(ctx, mylog, cfg)
	case "driver-service":
		err = driverservice.Execute(ctx, mylog, cfg)
	case "auth-service":
		err = authservice.Execute(ctx, mylog, cfg)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		mylog.Error("service exited with error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: app <ride-service|driver-service|auth-service>")
}
