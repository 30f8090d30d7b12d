package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/tendant/simple-values/pkg/simplevalues/invalidation"
	"github.com/tendant/simple-values/pkg/simplevalues/mediapicker"
	"github.com/tendant/simple-values/pkg/simplevalues/schema"
)

// NewGetCommand creates the get command
func NewGetCommand() *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "get <content-id> <property>",
		Short: "Print the converted value of a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid content ID: %w", err)
			}

			resp, err := clientFromFlags(cmd).GetValue(cmd.Context(), contentID, args[1], preview)
			if err != nil {
				return fmt.Errorf("get failed: %w", err)
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "Converter: %s\nResult type: %s\nSnapshot: %s\n",
					resp.Converter, resp.ResultType, resp.Snapshot)
			}
			if resp.Absent {
				fmt.Fprintln(cmd.ErrOrStderr(), "No value")
				return printJSON(cmd.OutOrStdout(), nil)
			}
			return printJSON(cmd.OutOrStdout(), resp.Value)
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "read draft entities")
	return cmd
}

// NewHasValueCommand creates the has-value command
func NewHasValueCommand() *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "has-value <content-id> <property>",
		Short: "Report whether a property holds a meaningful value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid content ID: %w", err)
			}

			resp, err := clientFromFlags(cmd).HasValue(cmd.Context(), contentID, args[1], preview)
			if err != nil {
				return fmt.Errorf("has-value failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.HasValue)
			return nil
		},
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "read draft entities")
	return cmd
}

// NewDescribeCommand creates the describe command
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <content-type> <property>",
		Short: "Show converter, result type and cache level of a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := clientFromFlags(cmd).DescribeProperty(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("describe failed: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

// NewInvalidateCommand creates the invalidate command
func NewInvalidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invalidate <content|content-type|media> <id-or-alias>",
		Short: "Announce a publish event",
		Long: `Announce that a content item, a content type or a media item changed.
The server drops cached values and advances its snapshot.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"content", "content-type", "media"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind invalidation.Kind
			switch args[0] {
			case "content":
				kind = invalidation.KindContent
			case "content-type":
				kind = invalidation.KindContentType
			case "media":
				kind = invalidation.KindMedia
			default:
				return fmt.Errorf("unknown target %q (use content, content-type or media)", args[0])
			}
			if kind != invalidation.KindContentType {
				if _, err := uuid.Parse(args[1]); err != nil {
					return fmt.Errorf("invalid %s key: %w", args[0], err)
				}
			}

			if err := clientFromFlags(cmd).Invalidate(cmd.Context(), kind, args[1]); err != nil {
				return fmt.Errorf("invalidate failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s %s\n", args[0], args[1])
			return nil
		},
	}
	return cmd
}

// NewTokenCommand creates the token command
func NewTokenCommand() *cobra.Command {
	var secret string
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for preview reads and invalidation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("a secret is required (--secret or JWT_SECRET)")
			}
			tok, err := mintToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", getEnv("JWT_SECRET", ""), "HS256 signing secret")
	cmd.Flags().StringVar(&subject, "subject", "valuesctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func mintToken(secret, subject string, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{"sub": subject}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, ttl)

	_, tok, err := jwtauth.New("HS256", []byte(secret), nil).Encode(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tok, nil
}

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>...",
		Short: "Check schema files offline",
		Long: `Load HCL content type schema files and check that exactly one converter
claims every property. Exits non-zero on the first file error or on any
configuration fault.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			source, err := schema.NewLoader(logger).Load(cmd.Context(), args...)
			if err != nil {
				return err
			}

			registry, err := simplevalues.NewRegistry(mediapicker.NewConverter())
			if err != nil {
				return err
			}

			descriptors := source.Descriptors()
			if err := registry.Validate(descriptors); err != nil {
				return err
			}

			types, err := source.ListContentTypes(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d content types, %d properties\n", len(types), len(descriptors))
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
