package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	streamstone "github.com/waywedo/Streamstone"
	"github.com/waywedo/Streamstone/table/ddb"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	configFlag  = flag.String("config", "streamstone.yaml", "Path to the YAML configuration file")
	streamFlag  = flag.String("stream", "demo-stream", "Stream id to provision and write to")
)

// config describes the target table. AWS credentials come from the
// environment (optionally loaded from .env).
type config struct {
	Region string `yaml:"region"`
	Table  string `yaml:"table"`
}

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := streamstone.GetVersionInfo()
		fmt.Printf("Streamstone version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}

	raw, err := os.ReadFile(*configFlag)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	t, err := ddb.NewWithCredentials(
		os.Getenv("AWS_ACCESS_KEY"),
		os.Getenv("AWS_SECRET_KEY"),
		cfg.Region,
		cfg.Table,
	)
	if err != nil {
		return err
	}

	ctx := context.Background()
	partition := streamstone.NewPartition(t, *streamFlag)

	stream, found, err := streamstone.TryOpen(ctx, partition)
	if err != nil {
		return err
	}
	if !found {
		stream, err = streamstone.ProvisionWithProperties(ctx, partition, streamstone.Properties(map[string]any{
			"Owner": "streamstone-cli",
		}))
		if err != nil {
			return err
		}
		log.Printf("Provisioned stream %q", *streamFlag)
	}

	result, err := streamstone.Write(ctx, stream, []streamstone.EventData{
		streamstone.Event(streamstone.Properties(map[string]any{
			"Type": "Ping",
		})),
	})
	if err != nil {
		return err
	}
	log.Printf("Stream %q is now at version %d", *streamFlag, result.Stream.Version)

	slice, err := streamstone.Read[streamstone.PropertyMap](ctx, partition, 1, streamstone.DefaultSliceSize)
	if err != nil {
		return err
	}
	for i, event := range slice.Events {
		log.Printf("event %d: %v", slice.StartVersion+int64(i), event)
	}
	return nil
}
