package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/chain"
	"github.com/RigelNana/baselibrary/services/mint-service/contenthash"
	"github.com/RigelNana/baselibrary/services/mint-service/service"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

// readContent returns the text named by --file ("-" is stdin) or, without
// the flag, the positional arguments joined by spaces.
func readContent(cmd *cobra.Command, file string, args []string) (string, error) {
	switch file {
	case "":
		if len(args) == 0 {
			return "", errors.New("pass the content as arguments or with --file")
		}
		return strings.Join(args, " "), nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	default:
		data, err := os.ReadFile(file)
		return string(data), err
	}
}

func short(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, commandTimeout)
}

// ===== session =====

func newLoginCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign the backend challenge with WALLET_PRIVATE_KEY and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			key, err := chain.ParsePrivateKey(a.Config.Chain.PrivateKey)
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			resp, err := service.Login(ctx, a.Backend, chain.KeySigner{Key: key}, a.Session)
			if err != nil {
				return err
			}
			return c.print(resp.User)
		},
	}
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the backend session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			return a.Backend.Logout(ctx, a.Session)
		},
	}
}

func newWhoamiCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			if !a.Session.Authenticated() {
				return service.ErrNotAuthenticated
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			user, err := a.Backend.Me(ctx, a.Session)
			if err != nil {
				return err
			}
			out := map[string]any{"user": user}
			if claims, err := a.Session.Claims(); err == nil && !claims.ExpiresAt.IsZero() {
				out["expires_at"] = claims.ExpiresAt
			}
			return c.print(out)
		},
	}
}

// ===== content =====

func newHashCommand(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "hash [text...]",
		Short: "Print the content hash and word count",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, file, args)
			if err != nil {
				return err
			}
			return c.print(map[string]any{
				"content_hash": contenthash.Hash(content),
				"word_count":   contenthash.WordCount(content),
				"size":         len(content),
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from a file, - for stdin")
	return cmd
}

func newCheckCommand(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "check [text...]",
		Short: "Check whether content is already registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, file, args)
			if err != nil {
				return err
			}
			a, svc, err := c.minting(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			res, err := svc.CheckDuplicate(ctx, a.Session, content)
			if err != nil {
				return err
			}
			return c.print(res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from a file, - for stdin")
	return cmd
}

// ===== workflows =====

func newMintCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mint <material-id>",
		Short: "Mint an NFT for an existing material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, svc, err := c.minting(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Server.WorkflowTimeout)
			defer cancel()
			return c.report(svc.MintMaterial(ctx, a.Session, args[0]))
		},
	}
}

func newCreateCommand(c *cli) *cobra.Command {
	var (
		file   string
		params service.CreateParams
	)
	cmd := &cobra.Command{
		Use:   "create [text...]",
		Short: "Mint new content and create its material",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, file, args)
			if err != nil {
				return err
			}
			params.Content = content
			if params.Title == "" && file != "" && file != "-" {
				params.Title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}
			a, svc, err := c.minting(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Server.WorkflowTimeout)
			defer cancel()
			return c.report(svc.CreateMaterial(ctx, a.Session, params))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from a file, - for stdin")
	cmd.Flags().StringVar(&params.Title, "title", "", "material title (defaults to the file name)")
	cmd.Flags().StringVar(&params.Subject, "subject", "", "subject")
	cmd.Flags().StringVar(&params.Grade, "grade", "", "grade")
	cmd.Flags().StringVar(&params.Topic, "topic", "", "topic")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newUpdateCommand(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <material-id> [text...]",
		Short: "Replace the content of a minted material",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, file, args[1:])
			if err != nil {
				return err
			}
			a, svc, err := c.minting(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Server.WorkflowTimeout)
			defer cancel()
			return c.report(svc.UpdateContent(ctx, a.Session, args[0], content))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read content from a file, - for stdin")
	return cmd
}

func newOwnershipCommand(c *cli) *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "ownership <material-id>",
		Short: "Show who owns a material and whether it can be minted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, svc, err := c.minting(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			check, err := svc.Ownership(ctx, a.Session, args[0], wallet)
			if err != nil {
				return err
			}
			return c.print(check)
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet to check (defaults to the minting wallet)")
	return cmd
}

// ===== catalogue =====

func newMaterialsCommand(c *cli) *cobra.Command {
	var (
		mine   bool
		filter backend.MaterialsFilter
		status string
	)
	cmd := &cobra.Command{
		Use:   "materials",
		Short: "List catalogue materials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			filter.Status = backend.MaterialStatus(status)
			ctx, cancel := short(cmd.Context())
			defer cancel()
			list := a.Backend.ListMaterials
			if mine {
				list = a.Backend.ListMyMaterials
			}
			resp, err := list(ctx, a.Session, filter)
			if err != nil {
				return err
			}
			return c.print(resp)
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "only materials of the signed-in user")
	cmd.Flags().IntVar(&filter.Page, "page", 1, "page")
	cmd.Flags().IntVar(&filter.PageSize, "page-size", 20, "page size")
	cmd.Flags().StringVar(&filter.Subject, "subject", "", "filter by subject")
	cmd.Flags().StringVar(&filter.Grade, "grade", "", "filter by grade")
	cmd.Flags().StringVar(&status, "status", "", "draft, published or archived")
	return cmd
}

// ===== ledger =====

func newAttemptsCommand(c *cli) *cobra.Command {
	var (
		status   string
		material string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "List recorded mint attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, svc, err := c.minting(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			if material != "" {
				attempts, err := svc.AttemptsForMaterial(ctx, material)
				if err != nil {
					return err
				}
				return c.print(attempts)
			}
			attempts, err := svc.ListAttempts(ctx, status, limit)
			if err != nil {
				return err
			}
			return c.print(attempts)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status, e.g. reconciliation_gap")
	cmd.Flags().StringVar(&material, "material", "", "attempts for one material")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows, 0 for all")
	return cmd
}

func newReconcileCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <attempt-id>",
		Short: "Retry the backend sync of a minted but unsynced attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, svc, err := c.minting(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			rec, err := svc.Reconcile(ctx, a.Session, args[0])
			if err != nil {
				return err
			}
			return c.print(rec)
		},
	}
}

// ===== pins =====

func newPinsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pins",
		Short: "Manage content pinned on IPFS",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pinned content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			pins, err := a.Pinata.ListPinned(ctx)
			if err != nil {
				return err
			}
			return c.print(pins)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "unpin <cid>",
		Short: "Remove a pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			return a.Pinata.Unpin(ctx, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "upload <file>",
		Short: "Pin a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			cid, err := a.Pinata.UploadFile(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			return c.print(map[string]string{"cid": cid, "url": a.Pinata.ContentURL(cid)})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <cid>",
		Short: "Print pinned text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := short(cmd.Context())
			defer cancel()
			text, err := a.Pinata.GetText(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, text)
			return err
		},
	})
	return cmd
}
