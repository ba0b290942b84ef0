// Package cli implements the trustlessid command: running the server and
// driving a running server's enrollment and verification endpoints.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"trustlessid/internal/app"
	"trustlessid/internal/fixtures"
	"trustlessid/internal/platform/config"
	"trustlessid/internal/platform/logger"
	"trustlessid/internal/stubclient"
	"trustlessid/internal/verification"
	workflowhandler "trustlessid/internal/workflow/handler"
	id "trustlessid/pkg/domain"
)

type options struct {
	envFile string
	server  string
	timeout time.Duration
}

type enrollOptions struct {
	email        string
	password     string
	fullName     string
	dateOfBirth  string
	nationality  string
	documentType string
	fileName     string
	fileSize     int64
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "trustlessid",
		Short:         "TrustlessID identity issuance server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:8080", "base URL of a running server")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-command deadline for client calls")
	cmd.AddCommand(newServeCommand(opts), newVerifyCommand(opts), newEnrollCommand(opts))
	return cmd
}

func newServeCommand(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnv(opts.envFile); err != nil {
				return err
			}
			cfg := config.FromEnv()
			if addr != "" {
				cfg.Addr = addr
			}
			log := logger.New(cfg.LogLevel)

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides TRUSTLESSID_ADDR")
	return cmd
}

func newVerifyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <credential-id>",
		Short: "Look up a credential through the public verification endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			result, err := stubclient.New(opts.server).Verify(ctx, args[0])
			if err != nil {
				return fmt.Errorf("verify %s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), verifyOutput{
				PublicVerification: result,
				TrustLabel:         verification.TrustLabel(result.TrustScore),
			})
		},
	}
}

// verifyOutput is the lookup result plus its display band.
type verifyOutput struct {
	verification.PublicVerification
	TrustLabel string `json:"trustLabel"`
}

func newEnrollCommand(opts *options) *cobra.Command {
	eo := &enrollOptions{}
	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Log in and run one identity session through to a credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			client := stubclient.New(opts.server)
			if _, err := client.Login(ctx, eo.email, eo.password); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			session, err := client.StartSession(ctx)
			if err != nil {
				return fmt.Errorf("start session: %w", err)
			}
			details := workflowhandler.DetailsRequest{
				FullName:    eo.fullName,
				Email:       eo.email,
				DateOfBirth: eo.dateOfBirth,
				Nationality: eo.nationality,
			}
			if details.FullName == "" {
				details.FullName = session.Details.FullName
			}
			if session, err = client.SubmitDetails(ctx, session.ID, details); err != nil {
				return fmt.Errorf("submit details: %w", err)
			}
			session, err = client.SubmitDocument(ctx, session.ID, workflowhandler.DocumentRequest{
				DocumentType: eo.documentType,
				FileName:     eo.fileName,
				FileSize:     eo.fileSize,
			})
			if err != nil {
				return fmt.Errorf("submit document: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), session)
		},
	}
	f := cmd.Flags()
	f.StringVar(&eo.email, "email", fixtures.DemoEmail, "account email")
	f.StringVar(&eo.password, "password", "demo", "account password (not checked by the server)")
	f.StringVar(&eo.fullName, "full-name", "", "full name, defaults to the account name")
	f.StringVar(&eo.dateOfBirth, "dob", "", "date of birth as YYYY-MM-DD")
	f.StringVar(&eo.nationality, "nationality", "", "nationality")
	f.StringVar(&eo.documentType, "document-type", string(id.DocumentTypePassport), "passport, drivers_license or national_id")
	f.StringVar(&eo.fileName, "file-name", "passport.pdf", "name of the uploaded file")
	f.Int64Var(&eo.fileSize, "file-size", 1<<20, "size of the uploaded file in bytes")
	return cmd
}

func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
