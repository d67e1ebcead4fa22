package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iwvelando/loan-revision/internal/config"
	"github.com/iwvelando/loan-revision/internal/indexstore"
	"github.com/iwvelando/loan-revision/internal/logging"
	"github.com/iwvelando/loan-revision/internal/revision"
	"github.com/iwvelando/loan-revision/pkg/constants"
	"github.com/iwvelando/loan-revision/pkg/loans"
	"github.com/iwvelando/loan-revision/pkg/output"
	"github.com/iwvelando/loan-revision/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; environment overrides are optional.
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	importFile := flag.String("import", "", "index document to import before calculating")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}
	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.String("op", "main"), zap.Error(err))
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning, zap.String("op", "main"))
	}

	params, err := conf.Loan.ToLoanParameters()
	if err != nil {
		logger.Fatal("invalid loan parameters", zap.String("op", "main"), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := indexstore.Open(conf.Indices.StoreConfig())
	if err != nil {
		logger.Fatal("failed to open index store", zap.String("op", "main"), zap.Error(err))
	}
	defer store.Close()

	var (
		lookup      loans.IndexLookup = store
		invalidator indexstore.Invalidator
	)
	if addr := conf.Indices.Cache.RedisAddress; addr != "" {
		cache := indexstore.NewRedisCache(addr)
		defer cache.Close()
		cached := indexstore.NewCachedLookup(store, cache, conf.Indices.Cache.TTL, logger)
		lookup, invalidator = cached, cached
	}

	path := conf.Indices.ImportFile
	if *importFile != "" {
		path = *importFile
	}
	if path != "" {
		importer := indexstore.NewImporter(store, logger).WithInvalidator(invalidator)
		if _, err := importer.ImportFile(ctx, path); err != nil {
			logger.Fatal("failed to import indices", zap.String("op", "main"), zap.String("file", path), zap.Error(err))
		}
	}

	result, err := revision.NewService(lookup, logger).Calculate(ctx, params, conf.Loan.PaidInstallments)
	if err != nil {
		logger.Fatal("failed to revise loan", zap.String("op", "main"), zap.Error(err))
	}

	if err := output.Write(os.Stdout, outputFormat, result); err != nil {
		logger.Fatal("failed to write output", zap.String("op", "main"), zap.Error(err))
	}
}
