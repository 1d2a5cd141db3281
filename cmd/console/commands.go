package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/condo-console/access"
	"github.com/jrsteele09/condo-console/auth"
	"github.com/jrsteele09/condo-console/calendar"
	"github.com/jrsteele09/condo-console/internal/config"
	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/internal/utils"
	"github.com/jrsteele09/condo-console/reservations"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/pkg/errors"
)

type command struct {
	usage  string
	needs  bool // Runs against a resumed session
	action func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":           {usage: "login -email E [-password P] [-tenant ID]", action: loginCmd},
	"logout":          {usage: "logout", action: logoutCmd},
	"whoami":          {usage: "whoami", needs: true, action: whoamiCmd},
	"views":           {usage: "views", needs: true, action: viewsCmd},
	"navigate":        {usage: "navigate VIEW", needs: true, action: navigateCmd},
	"reservations":    {usage: "reservations [-area A]", needs: true, action: reservationsCmd},
	"calendar":        {usage: "calendar [-month YYYY-MM] [-area A]", needs: true, action: calendarCmd},
	"book":            {usage: "book -unit N -area A -start 'YYYY-MM-DD HH:MM' -end 'YYYY-MM-DD HH:MM'", needs: true, action: bookCmd},
	"cancel":          {usage: "cancel ID", needs: true, action: cancelCmd},
	"tenants":         {usage: "tenants", needs: true, action: tenantsCmd},
	"register-tenant": {usage: "register-tenant -name N -cnpj C -address A -phone P -email E -admin-email E -admin-password P -admin-name N", action: registerTenantCmd},
}

func dispatch(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(cfg, out)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		usage(cfg, out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	a, err := newApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	if a.service.Start(ctx) != auth.LoggedIn && cmd.needs {
		return errors.Wrap(cerrors.ErrInvalidState, "not logged in, run login first")
	}
	return cmd.action(ctx, a, args[1:])
}

func usage(cfg config.Config, out io.Writer) {
	displayAppname(out, cfg.GetAppName())
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(out, "Commands:")
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", commands[name].usage)
	}
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", os.Getenv("CONSOLE_PASSWORD"), "password (defaults to $CONSOLE_PASSWORD)")
	tenantID := fs.Int64("tenant", 0, "tenant id (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := auth.LoginRequest{Email: *email, Password: *password}
	if *tenantID != 0 {
		req.TenantID = utils.Ptr(*tenantID)
	}
	if err := a.service.Login(ctx, req); err != nil {
		return err
	}

	session, _ := a.service.Session()
	a.theme.header()
	fmt.Fprintf(a.out, "Logged in as %s\n", session.User)
	return viewsCmd(ctx, a, nil)
}

func logoutCmd(ctx context.Context, a *app, _ []string) error {
	if err := a.service.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func whoamiCmd(_ context.Context, a *app, _ []string) error {
	session, _ := a.service.Session()
	vc, _ := a.service.ViewContext()
	a.theme.header()
	fmt.Fprintf(a.out, "User:   %s\n", session.User)
	fmt.Fprintf(a.out, "Tenant: %s (%d)\n", session.Tenant.Name, session.Tenant.ID)
	fmt.Fprintf(a.out, "Units:  %s\n", vc.Units)
	return nil
}

func viewsCmd(_ context.Context, a *app, _ []string) error {
	vc, ok := a.service.ViewContext()
	if !ok {
		return errors.Wrap(cerrors.ErrInvalidState, "not logged in")
	}
	views := make([]string, 0, vc.Capabilities.Len())
	for _, v := range vc.Capabilities.List() {
		views = append(views, string(v))
	}
	fmt.Fprintf(a.out, "Views: %s\n", strings.Join(views, ", "))
	return nil
}

func navigateCmd(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return cerrors.Validationf("navigate takes exactly one view")
	}
	view, ok := access.ParseView(args[0])
	if !ok {
		return cerrors.Validationf("unknown view %q", args[0])
	}
	if err := a.service.Navigate(view); err != nil {
		return err
	}
	vc, _ := a.service.ViewContext()
	if view == access.ViewUnits {
		fmt.Fprintf(a.out, "Now on %s (%s)\n", view, vc.Units)
		return nil
	}
	fmt.Fprintf(a.out, "Now on %s\n", view)
	return nil
}

func reservationsCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("reservations", flag.ContinueOnError)
	area := fs.String("area", "", "area filter (substring, case-insensitive)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.service.Reservations(ctx, *area)
	if err != nil {
		return err
	}
	session, _ := a.service.Session()
	loc := a.cfg.GetLocation()

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUNIT\tAREA\tSTART\tEND\tSTATUS\t")
	for _, r := range list {
		mine := ""
		if r.IsOwnedBy(session.User.ID) {
			mine = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%d\t%s\t%s\t%s\t%s\t\n", r.ID, mine, r.UnitID, r.Area,
			r.StartTime.In(loc).Format("2006-01-02 15:04"), r.EndTime.In(loc).Format("2006-01-02 15:04"), r.Status)
	}
	return tw.Flush()
}

func calendarCmd(ctx context.Context, a *app, args []string) error {
	loc := a.cfg.GetLocation()
	now := time.Now().In(loc)

	fs := flag.NewFlagSet("calendar", flag.ContinueOnError)
	monthFlag := fs.String("month", now.Format("2006-01"), "month to show")
	area := fs.String("area", "", "area filter (substring, case-insensitive)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	first, err := time.ParseInLocation("2006-01", *monthFlag, loc)
	if err != nil {
		return cerrors.Validationf("month %q is not YYYY-MM", *monthFlag)
	}

	month, err := a.service.Calendar(ctx, first.Year(), first.Month(), *area, loc)
	if err != nil {
		return err
	}
	return calendar.Render(a.out, month, a.theme.renderOptions())
}

func bookCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	unit := fs.Int64("unit", 0, "unit id")
	area := fs.String("area", "", "area, e.g. pool")
	start := fs.String("start", "", "start, YYYY-MM-DD HH:MM")
	end := fs.String("end", "", "end, YYYY-MM-DD HH:MM")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loc := a.cfg.GetLocation()
	startAt, err := reservations.ParseTime(*start, loc)
	if err != nil {
		return cerrors.Validationf("start: %s", err)
	}
	endAt, err := reservations.ParseTime(*end, loc)
	if err != nil {
		return cerrors.Validationf("end: %s", err)
	}

	created, err := a.service.Book(ctx, auth.BookingRequest{UnitID: *unit, Area: *area, Start: startAt, End: endAt})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reservation %d %s: %s %s - %s\n", created.ID, created.Status, created.Area,
		created.StartTime.In(loc).Format("2006-01-02 15:04"), created.EndTime.In(loc).Format("15:04"))
	return nil
}

func cancelCmd(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return cerrors.Validationf("cancel takes exactly one reservation id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return cerrors.Validationf("reservation id %q is not a number", args[0])
	}
	if err := a.service.Cancel(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reservation %d cancelled\n", id)
	return nil
}

func tenantsCmd(ctx context.Context, a *app, _ []string) error {
	list, err := a.service.Tenants(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCNPJ\tACTIVE\t")
	for _, t := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t\n", t.ID, t.Name, t.CNPJ, t.IsActive)
	}
	return tw.Flush()
}

func registerTenantCmd(ctx context.Context, a *app, args []string) error {
	var reg tenants.Registration
	var primary, secondary, logo string

	fs := flag.NewFlagSet("register-tenant", flag.ContinueOnError)
	fs.StringVar(&reg.Name, "name", "", "condominium name")
	fs.StringVar(&reg.CNPJ, "cnpj", "", "CNPJ")
	fs.StringVar(&reg.Address, "address", "", "address")
	fs.StringVar(&reg.Phone, "phone", "", "phone")
	fs.StringVar(&reg.Email, "email", "", "contact email")
	fs.StringVar(&reg.AdminEmail, "admin-email", "", "first admin email")
	fs.StringVar(&reg.AdminPassword, "admin-password", os.Getenv("CONSOLE_ADMIN_PASSWORD"), "first admin password (defaults to $CONSOLE_ADMIN_PASSWORD)")
	fs.StringVar(&reg.AdminName, "admin-name", "", "first admin name")
	fs.StringVar(&primary, "primary-color", "", "theme primary colour, #rrggbb")
	fs.StringVar(&secondary, "secondary-color", "", "theme secondary colour, #rrggbb")
	fs.StringVar(&logo, "logo-url", "", "theme logo url")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if primary != "" || secondary != "" || logo != "" {
		reg.Theme = &tenants.ThemeConfig{}
		if primary != "" {
			reg.Theme.PrimaryColor = utils.Ptr(primary)
		}
		if secondary != "" {
			reg.Theme.SecondaryColor = utils.Ptr(secondary)
		}
		if logo != "" {
			reg.Theme.LogoURL = utils.Ptr(logo)
		}
	}

	if a.service.State() == auth.LoggedIn {
		return errors.Wrap(cerrors.ErrInvalidState, "log out before registering a new condominium")
	}
	created, err := a.service.RegisterTenant(ctx, reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s as tenant %d. Log in with %s.\n", created.Name, created.ID, reg.AdminEmail)
	return nil
}
