package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/umeshrajanna/deepship-api/pkg/api"
	"github.com/umeshrajanna/deepship-api/pkg/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" || password == "" {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email).Validate(notEmpty("email")),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).Validate(notEmpty("password")),
			))
			if err := runForm(form); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.client.Login(ctx, strings.TrimSpace(email), password)
		if err != nil {
			return err
		}
		return signIn(cmd, a, session.User{
			ID:       resp.UserID,
			Username: resp.Username,
			Email:    strings.TrimSpace(email),
			Token:    resp.AccessToken,
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if username == "" || email == "" || password == "" {
			var confirm string
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Username").Value(&username).Validate(notEmpty("username")),
				huh.NewInput().Title("Email").Value(&email).Validate(notEmpty("email")),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).Validate(notEmpty("password")),
				huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm).
					Validate(func(s string) error {
						if s != password {
							return errors.New("passwords do not match")
						}
						return nil
					}),
			))
			if err := runForm(form); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.client.Register(ctx, strings.TrimSpace(username), strings.TrimSpace(email), password)
		if err != nil {
			return err
		}
		return signIn(cmd, a, session.User{
			ID:       resp.UserID,
			Username: resp.Username,
			Email:    strings.TrimSpace(email),
			Token:    resp.AccessToken,
		})
	},
}

var magicLinkCmd = &cobra.Command{
	Use:   "magic-link <email>",
	Short: "Email a one-time sign-in link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.client.RequestMagicLink(ctx, strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, resp.Message)
		if resp.ExpiresInMinutes > 0 {
			fmt.Fprintf(out, "The link expires in %d minutes.\n", resp.ExpiresInMinutes)
		}
		fmt.Fprintln(out, hintStyle.Render("Then run `deepship verify <link>` with the link from the email."))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <token|url>",
	Short: "Sign in with a magic-link token, link or OAuth redirect URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		creds, err := resolveCredentials(args[0], func(token string) (*api.Credentials, error) {
			return a.client.Verify(ctx, token)
		})
		if err != nil {
			return err
		}
		return signIn(cmd, a, session.User{
			ID:       creds.UserID,
			Username: creds.Username,
			Email:    creds.Email,
			Token:    creds.Token,
		})
	},
}

var oauthURLCmd = &cobra.Command{
	Use:   "oauth-url",
	Short: "Print the Google sign-in URL",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		location, err := a.client.OAuthURL(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, location)
		fmt.Fprintln(out, hintStyle.Render("Open it in a browser, then run `deepship verify <redirect url>`."))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the active conversation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and backend status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if u, ok := a.session.User(); ok {
			fmt.Fprintf(out, "%s %s\n", titleStyle.Render(u.Username), hintStyle.Render("<"+u.Email+">"))
			fmt.Fprintf(out, "user id: %s\n", u.ID)
		} else {
			fmt.Fprintln(out, "Not signed in.")
		}
		fmt.Fprintf(out, "mode: %s\n", a.session.Mode())
		if id := a.session.ConversationID(); id != "" {
			fmt.Fprintf(out, "conversation: %s\n", id)
		}

		health, err := a.client.Health(ctx)
		if err != nil {
			fmt.Fprintf(out, "backend: %s %s\n", a.cfg.API.BaseURL, errorStyle.Render("unreachable"))
			return nil
		}
		fmt.Fprintf(out, "backend: %s %s\n", a.cfg.API.BaseURL, health.Status)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")

	registerCmd.Flags().String("username", "", "display name")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password")

	rootCmd.AddCommand(loginCmd, registerCmd, magicLinkCmd, verifyCmd, oauthURLCmd, logoutCmd, whoamiCmd)
}

func signIn(cmd *cobra.Command, a *app, u session.User) error {
	if err := a.session.Login(cmd.Context(), u); err != nil {
		return err
	}
	name := u.Username
	if name == "" {
		name = u.Email
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", titleStyle.Render(name))
	return nil
}

// resolveCredentials accepts a bare magic-link token, a magic link
// (…/verify?token=…) or the frontend redirect that already carries the
// credentials.
func resolveCredentials(arg string, verify func(token string) (*api.Credentials, error)) (*api.Credentials, error) {
	arg = strings.TrimSpace(arg)
	if !strings.Contains(arg, "://") {
		return verify(arg)
	}

	u, err := url.Parse(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid link: %w", err)
	}
	q := u.Query()
	if q.Has("user_id") || q.Has("error") || q.Has("oauth_success") {
		return api.ParseRedirect(arg)
	}
	if token := q.Get("token"); token != "" {
		return verify(token)
	}
	return nil, fmt.Errorf("link carries no token")
}

func runForm(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errReported
		}
		return err
	}
	return nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
