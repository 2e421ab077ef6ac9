// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sunmery/tiktok-ecommerce-storefront/api"
	"github.com/sunmery/tiktok-ecommerce-storefront/present"
	"github.com/sunmery/tiktok-ecommerce-storefront/storage"
	"github.com/sunmery/tiktok-ecommerce-storefront/store"
	"github.com/sunmery/tiktok-ecommerce-storefront/syncer"
)

// cliPrefix keys the terminal user's state in the storage backend.
const cliPrefix = "cli/"

// withSyncer opens the configured storage, runs fn with the terminal
// user's syncer and prints the alerts fn produced.
func withSyncer(cmd *cobra.Command, opts *rootOptions, fn func(*syncer.Syncer) error) error {
	ctx := cmd.Context()
	st, closeStorage, err := storage.Open(ctx, opts.cfg.StorageOptions())
	if err != nil {
		return errors.Wrap(err, "could not open storage")
	}
	defer func() {
		if err := closeStorage(); err != nil {
			opts.log.WithField("error", err).Warn("could not close storage")
		}
	}()
	sy, err := newSyncer(ctx, opts.cfg, st, cliPrefix, nil, opts.log)
	if err != nil {
		return err
	}
	err = fn(sy)
	for _, a := range sy.Alerts().Drain() {
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", a.Level, a.Message)
	}
	return err
}

func newCartCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the local cart",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				printCart(cmd.OutOrStdout(), sy.State())
				return nil
			})
		},
	}

	var item store.CartItem
	add := &cobra.Command{
		Use:   "add PRODUCT MERCHANT",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item.ProductID, item.MerchantID = args[0], args[1]
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				if err := sy.AddToCart(cmd.Context(), item); err != nil {
					return err
				}
				printCart(cmd.OutOrStdout(), sy.State())
				return nil
			})
		},
	}
	add.Flags().Int32VarP(&item.Quantity, "quantity", "n", 1, "quantity to add")
	add.Flags().StringVar(&item.Name, "name", "", "product name")
	add.Flags().Float64Var(&item.Price, "price", 0, "unit price")

	remove := &cobra.Command{
		Use:   "remove PRODUCT MERCHANT",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				return sy.RemoveFromCart(cmd.Context(), store.ItemKey{ProductID: args[0], MerchantID: args[1]})
			})
		},
	}

	qty := &cobra.Command{
		Use:   "qty PRODUCT MERCHANT QUANTITY",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[2], 10, 32)
			if err != nil {
				return errors.Wrapf(err, "invalid quantity %q", args[2])
			}
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				return sy.UpdateCartQuantity(cmd.Context(), store.ItemKey{ProductID: args[0], MerchantID: args[1]}, int32(n))
			})
		},
	}

	var all, none bool
	sel := &cobra.Command{
		Use:   "select [PRODUCT MERCHANT]",
		Short: "Toggle the selection of a line, or of every line with --all/--none",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && !none && len(args) != 2 {
				return errors.New("select needs PRODUCT MERCHANT, --all or --none")
			}
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				switch {
				case all:
					sy.SelectAll(true)
				case none:
					sy.SelectAll(false)
				default:
					sy.ToggleSelected(store.ItemKey{ProductID: args[0], MerchantID: args[1]})
				}
				printCart(cmd.OutOrStdout(), sy.State())
				return nil
			})
		},
	}
	sel.Flags().BoolVar(&all, "all", false, "select every line")
	sel.Flags().BoolVar(&none, "none", false, "deselect every line")
	sel.MarkFlagsMutuallyExclusive("all", "none")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				return sy.ClearCart(cmd.Context())
			})
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the server cart into the local one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				if err := sy.SyncCart(cmd.Context()); err != nil {
					return err
				}
				printCart(cmd.OutOrStdout(), sy.State())
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, remove, qty, sel, clearCmd, syncCmd)
	return cmd
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and move the local cart onto the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				acct, err := sy.Login(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", acct.Name, acct.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				sy.Logout()
				return nil
			})
		},
	}
}

func newOrdersCmd(opts *rootOptions) *cobra.Command {
	var (
		page   int
		status string
		lang   string
	)
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List the signed-in user's orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSyncer(cmd, opts, func(sy *syncer.Syncer) error {
				list, err := sy.RefreshOrders(cmd.Context(), api.ListOrdersParams{
					Page:   api.Page{Page: page, PageSize: present.DefaultPageSize},
					Status: store.OrderStatus(status),
				})
				if err != nil {
					return err
				}
				tag := present.Language(lang)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ORDER\tSTATUS\tPAYMENT\tTOTAL")
				for _, o := range list.Orders {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID,
						present.OrderStatusLabel(o.Status, tag),
						present.PaymentStatusLabel(o.PaymentStatus, tag),
						renderPrice(o.Currency, o.TotalAmount))
				}
				p := present.Paginate(list.Total, page, present.DefaultPageSize)
				fmt.Fprintf(tw, "page %d/%d, %d orders\n", p.Page, p.Pages, p.Total)
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&status, "status", "", "only orders in this status")
	cmd.Flags().StringVar(&lang, "lang", "en", "label language")
	return cmd
}

func printCart(w io.Writer, st *store.State) {
	v := newCartView(st)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEL\tPRODUCT\tMERCHANT\tNAME\tQTY\tSUBTOTAL")
	for _, it := range v.Items {
		mark := " "
		if it.Selected {
			mark = "x"
		}
		fmt.Fprintf(tw, "[%s]\t%s\t%s\t%s\t%d\t%s\n", mark, it.ProductID, it.MerchantID, it.Name, it.Quantity, it.Subtotal)
	}
	fmt.Fprintf(tw, "\t\t\t%d items\t%d\t%s (selected %s)\n", v.Count, v.TotalQuantity, v.Total, v.SelectedTotal)
	_ = tw.Flush()
}
