package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aescanero/genflow/internal/application/settings"
	"github.com/aescanero/genflow/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errInvalidKey = errors.New("API key rejected")

var validateKeyFlags struct {
	key     string
	baseURL string
	save    bool
	timeout time.Duration
}

var validateKeyCmd = &cobra.Command{
	Use:   "validate-key",
	Short: "Check an API key against the generation service",
	Long: `Probes the model listing with the key. With --save a valid key is written
to the configured credential backend (CREDENTIALS_BACKEND=redis to keep it).

The key defaults to POLLINATIONS_API_KEY.`,
	RunE: runValidateKey,
}

func init() {
	f := validateKeyCmd.Flags()
	f.StringVar(&validateKeyFlags.key, "key", "", "API key to check (default $POLLINATIONS_API_KEY)")
	f.StringVar(&validateKeyFlags.baseURL, "base-url", "", "Generation service base URL (default $POLLINATIONS_BASE_URL)")
	f.BoolVar(&validateKeyFlags.save, "save", false, "Store the key when it is valid")
	f.DurationVar(&validateKeyFlags.timeout, "timeout", 15*time.Second, "Probe timeout")
}

func runValidateKey(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if validateKeyFlags.baseURL != "" {
		cfg.Pollinations.BaseURL = validateKeyFlags.baseURL
	}
	key := validateKeyFlags.key
	if key == "" {
		key = cfg.Pollinations.APIKey
	}
	if key == "" {
		return fmt.Errorf("no key given: pass --key or set POLLINATIONS_API_KEY")
	}

	logger := zap.NewNop()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger = initLogger("debug")
	}

	ctx := cmd.Context()
	redisClient, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	client, err := newGenerationClient(cfg, nil, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	keyType := settings.ClassifyKey(key)
	probeCtx, cancel := context.WithTimeout(ctx, validateKeyFlags.timeout)
	defer cancel()

	if !validateKeyFlags.save {
		if !client.ValidateAPIKey(probeCtx, key) {
			fmt.Fprintf(out, "invalid (%s key %s)\n", keyType, settings.MaskKey(key))
			return errInvalidKey
		}
		fmt.Fprintf(out, "valid (%s key %s)\n", keyType, settings.MaskKey(key))
		return nil
	}

	svc := settings.NewService(newCredentialStore(cfg, redisClient, logger), client, client, logger)
	valid, err := svc.ValidateAndStore(probeCtx, key)
	if err != nil {
		return err
	}
	if !valid {
		fmt.Fprintf(out, "invalid (%s key %s), not saved\n", keyType, settings.MaskKey(key))
		return errInvalidKey
	}
	fmt.Fprintf(out, "valid (%s key %s), saved to %s\n", keyType, settings.MaskKey(key), cfg.CredentialsBackend)
	return nil
}
