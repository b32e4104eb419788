package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/api"
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show your message credit balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		credits, err := a.client.Credits(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if credits.IsPremium {
			fmt.Fprintln(out, titleStyle.Render("Premium"))
		}
		fmt.Fprintf(out, "credits: %d\n", credits.MessageCredits)
		fmt.Fprintf(out, "purchased: %d\n", credits.TotalPurchased)
		fmt.Fprintf(out, "spent: %.2f\n", credits.TotalSpent)
		fmt.Fprintf(out, "last purchase: %s\n", formatTime(credits.LastPurchase.Time))
		return nil
	},
}

var creditsPackagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List credit packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		pkgs, err := a.client.Packages(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(pkgs))
		for _, p := range pkgs {
			rows = append(rows, []string{p.Key, p.Name, strconv.Itoa(p.Credits), formatMoney(p.Price, p.Currency), p.Badge})
		}
		printTable(cmd.OutOrStdout(), []string{"KEY", "NAME", "CREDITS", "PRICE", ""}, rows)
		return nil
	},
}

var creditsBuyCmd = &cobra.Command{
	Use:   "buy [package]",
	Short: "Create a payment order for a credit package",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			pkgs, err := a.client.Packages(ctx)
			if err != nil {
				return err
			}
			if key, err = pickPackage(pkgs); err != nil {
				return err
			}
		}

		order, err := a.client.CreateOrder(ctx, key)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Order %s created: %d credits for %s.\n",
			titleStyle.Render(order.OrderID), order.Credits, formatMoney(float64(order.Amount)/100, order.Currency))
		fmt.Fprintf(out, "checkout key: %s\n", order.KeyID)
		fmt.Fprintln(out, hintStyle.Render("Complete the checkout, then run `deepship credits verify --order "+order.OrderID+" --payment <id> --signature <sig>`."))
		return nil
	},
}

var creditsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Confirm a completed checkout and add its credits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		proof := api.PaymentProof{}
		proof.OrderID, _ = cmd.Flags().GetString("order")
		proof.PaymentID, _ = cmd.Flags().GetString("payment")
		proof.Signature, _ = cmd.Flags().GetString("signature")

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		result, err := a.client.VerifyPayment(ctx, proof)
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("payment not verified: %s", result.Message)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d credits. Balance: %d.\n", result.CreditsAdded, result.TotalCredits)
		return nil
	},
}

var creditsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List past purchases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.requireLogin(); err != nil {
			return err
		}

		purchases, err := a.client.PurchaseHistory(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(purchases) == 0 {
			fmt.Fprintln(out, "No purchases yet.")
			return nil
		}
		rows := make([][]string, 0, len(purchases))
		for _, p := range purchases {
			rows = append(rows, []string{
				formatTime(p.Date.Time),
				p.Package,
				strconv.Itoa(p.Credits),
				formatMoney(p.Amount, p.Currency),
				p.PaymentID,
			})
		}
		printTable(out, []string{"DATE", "PACKAGE", "CREDITS", "AMOUNT", "PAYMENT"}, rows)
		return nil
	},
}

func init() {
	creditsVerifyCmd.Flags().String("order", "", "payment gateway order id")
	creditsVerifyCmd.Flags().String("payment", "", "payment id returned by the checkout")
	creditsVerifyCmd.Flags().String("signature", "", "signature returned by the checkout")
	creditsVerifyCmd.MarkFlagRequired("order")
	creditsVerifyCmd.MarkFlagRequired("payment")
	creditsVerifyCmd.MarkFlagRequired("signature")

	creditsCmd.AddCommand(creditsPackagesCmd, creditsBuyCmd, creditsVerifyCmd, creditsHistoryCmd)
	rootCmd.AddCommand(creditsCmd)
}

func pickPackage(pkgs []api.Package) (string, error) {
	if len(pkgs) == 0 {
		return "", fmt.Errorf("no credit packages available")
	}
	options := make([]huh.Option[string], 0, len(pkgs))
	for _, p := range pkgs {
		label := fmt.Sprintf("%s: %d credits, %s", p.Name, p.Credits, formatMoney(p.Price, p.Currency))
		if p.Badge != "" {
			label += " (" + p.Badge + ")"
		}
		options = append(options, huh.NewOption(label, p.Key))
	}

	key := pkgs[0].Key
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Choose a credit package").
			Options(options...).
			Value(&key),
	))
	if err := runForm(form); err != nil {
		return "", err
	}
	return key, nil
}
