package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/and161185/cardvault/internal/convert"
)

func addCmd(a *app) *cobra.Command {
	var (
		f                cardFlags
		front, back, out string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a card from front/back images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := f.newCard()
			var err error
			if in.Front, err = openUpload(cmd, front); err != nil {
				return err
			}
			if in.Back, err = openUpload(cmd, back); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			card, err := a.api().CreateCard(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", card.ID, card.ShareURL)
			if out == "" {
				return nil
			}
			png, err := a.api().CardQR(ctx, card.ID)
			if err != nil {
				return err
			}
			return os.WriteFile(out, png, 0o644)
		},
	}
	f.bind(cmd.Flags())
	cmd.Flags().StringVar(&front, "front", "", "front image (required, - for stdin)")
	cmd.Flags().StringVar(&back, "back", "", "back image")
	cmd.Flags().StringVar(&out, "qr", "", "also save the share QR code as PNG")
	_ = cmd.MarkFlagRequired("front")
	_ = cmd.MarkFlagRequired("full-name")
	return cmd
}

func lsCmd(a *app) *cobra.Command {
	var (
		query  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List your cards, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			cards, err := a.api().ListCards(ctx, query)
			if err != nil {
				return err
			}
			if asJSON {
				printJSON(cmd.OutOrStdout(), cards)
				return nil
			}
			printCardRows(cmd.OutOrStdout(), cards)
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name, company or tag")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func watchCmd(a *app) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the card list every time it changes (Ctrl-C stops)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// no request timeout: the stream runs until interrupted
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := a.authed(ctx); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			err := a.api().Watch(ctx, query, func(cards []convert.CardDTO) {
				fmt.Fprintf(w, "-- %d card(s)\n", len(cards))
				printCardRows(w, cards)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name, company or tag")
	return cmd
}

func getCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one of your cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			card, err := a.api().GetCard(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s\n", "id:", card.ID)
			printCard(cmd.OutOrStdout(), card.PublicCardDTO)
			return nil
		},
	}
}

func editCmd(a *app) *cobra.Command {
	var f cardFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a card; unset flags stay as they are",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := f.patch(cmd.Flags())
			if isEmptyPatch(patch) {
				return errors.New("nothing to change")
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			card, err := a.api().UpdateCard(ctx, args[0], patch)
			if err != nil {
				return err
			}
			printCard(cmd.OutOrStdout(), card.PublicCardDTO)
			return nil
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func rmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			return a.api().DeleteCard(ctx, args[0])
		},
	}
}

func qrCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "qr <id>",
		Short: "Save the share QR code of a card as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.authed(ctx); err != nil {
				return err
			}
			png, err := a.api().CardQR(ctx, args[0])
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(png)
				return err
			}
			return os.WriteFile(out, png, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "card-qr.png", "output file (- for stdout)")
	return cmd
}
