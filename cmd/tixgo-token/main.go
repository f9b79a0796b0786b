// Command tixgo-token issues bearer tokens for the tixgo API. It reads
// JWT_SECRET and JWT_ISSUER from the environment or a .env file unless they
// are given as flags.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/kirinyoku/tix-factory/internal/auth"
	"github.com/kirinyoku/tix-factory/internal/domain"
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		account string
		key     string
		secret  string
		issuer  string
		ttl     time.Duration
	)

	flagSet := pflag.NewFlagSet("tixgo-token", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVarP(&account, "account", "a", "", "account id the token is issued for (required)")
	flagSet.StringVarP(&key, "public-key", "k", "", "signing key added to provisioned deployments")
	flagSet.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret (default $JWT_SECRET)")
	flagSet.StringVar(&issuer, "issuer", envOr("JWT_ISSUER", "tixgo"), "token issuer")
	flagSet.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if account == "" {
		return errors.New("--account is required")
	}

	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive, got %s", ttl)
	}

	tokens, err := auth.New(secret, issuer, nil)
	if err != nil {
		return err
	}

	raw, exp, err := tokens.Issue(domain.Caller{Account: domain.AccountID(account), PublicKey: key}, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, raw)
	fmt.Fprintf(out, "# expires %s\n", exp.Format(time.RFC3339))
	return nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
