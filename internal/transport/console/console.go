package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/pkg/logger"
)

// Menu commands
const (
	cmdGetByID = iota + 1
	cmdGetAll
	cmdCreate
	cmdUpdate
	cmdDelete
	cmdExit
)

var menu = []string{
	"1. get user by id",
	"2. get all users",
	"3. save user",
	"4. update user",
	"5. delete user",
	"6. exit",
}

// UserService defines the user operations the console drives
type UserService interface {
	Create(ctx context.Context, req user.CreateRequest) (*user.Response, error)
	GetByID(ctx context.Context, id int64) (*user.Response, error)
	List(ctx context.Context) ([]user.Response, error)
	UpdateField(ctx context.Context, id int64, f user.FieldUpdate) (*user.Response, error)
	Delete(ctx context.Context, id int64) error
}

// Console is a line-oriented REPL over the user service
type Console struct {
	svc    UserService
	in     *bufio.Scanner
	out    io.Writer
	st     styles
	logger *logger.Logger
}

// New creates a console reading commands from in and writing to out
func New(svc UserService, in io.Reader, out io.Writer, log *logger.Logger) *Console {
	if log == nil {
		log = logger.NewNop()
	}
	return &Console{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		st:     newStyles(out),
		logger: log.WithField("component", "console"),
	}
}

// Run loops until the exit command, end of input, or ctx is done.
// Invalid input is reported and the loop continues.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		c.printMenu()
		line, err := c.ask("Enter necessary number of a command: ")
		if err != nil {
			return c.endOfInput(err)
		}

		// non-numeric input falls through to the unknown command branch
		command, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil {
			command = 0
		}

		switch command {
		case cmdGetByID:
			err = c.getByID(ctx)
		case cmdGetAll:
			err = c.getAll(ctx)
		case cmdCreate:
			err = c.create(ctx)
		case cmdUpdate:
			err = c.update(ctx)
		case cmdDelete:
			err = c.delete(ctx)
		case cmdExit:
			c.println(c.st.muted.Render("Bye!"))
			return nil
		default:
			c.println(c.st.warn.Render("Unknown command!"))
		}

		if err != nil {
			return c.endOfInput(err)
		}
	}
}

func (c *Console) getByID(ctx context.Context) error {
	id, ok, err := c.askID("Enter the id: ")
	if err != nil || !ok {
		return err
	}

	found, err := c.svc.GetByID(ctx, id)
	if err != nil {
		c.printError(err)
		return nil
	}
	c.println(c.formatUser(*found))
	return nil
}

func (c *Console) getAll(ctx context.Context) error {
	users, err := c.svc.List(ctx)
	if err != nil {
		c.printError(err)
		return nil
	}

	if len(users) == 0 {
		c.println(c.st.muted.Render("No users found."))
		return nil
	}
	for _, u := range users {
		c.println(c.formatUser(u))
	}
	return nil
}

func (c *Console) create(ctx context.Context) error {
	name, err := c.ask("Enter name: ")
	if err != nil {
		return err
	}
	email, err := c.ask("Enter email: ")
	if err != nil {
		return err
	}
	rawAge, err := c.ask("Enter age: ")
	if err != nil {
		return err
	}

	age, err := user.ParseAge(rawAge)
	if err != nil {
		c.printError(err)
		return nil
	}

	created, err := c.svc.Create(ctx, user.CreateRequest{Name: name, Email: email, Age: &age})
	if err != nil {
		c.printError(err)
		return nil
	}
	c.println(c.st.ok.Render("User was created!") + " " + c.formatUser(*created))
	return nil
}

func (c *Console) update(ctx context.Context) error {
	id, ok, err := c.askID("Enter id of wanted user: ")
	if err != nil || !ok {
		return err
	}

	// The record must exist before the edit is asked for
	if _, err := c.svc.GetByID(ctx, id); err != nil {
		c.printError(err)
		return nil
	}

	line, err := c.ask("Enter parameter you need to change with the naming (e.g. age;33): ")
	if err != nil {
		return err
	}

	edit, err := user.ParseFieldUpdate(line)
	if err != nil {
		c.println(c.st.fail.Render("Wrong number of arguments!"))
		return nil
	}

	updated, err := c.svc.UpdateField(ctx, id, edit)
	if err != nil {
		c.printError(err)
		return nil
	}

	if !edit.Known() {
		c.println(c.st.warn.Render("Unknown parameter!"))
		return nil
	}
	c.println(c.st.ok.Render("User was updated!") + " " + c.formatUser(*updated))
	return nil
}

func (c *Console) delete(ctx context.Context) error {
	id, ok, err := c.askID("Enter the id: ")
	if err != nil || !ok {
		return err
	}

	if err := c.svc.Delete(ctx, id); err != nil {
		c.printError(err)
		return nil
	}
	c.println(c.st.ok.Render("Picked user was deleted!"))
	return nil
}

// ask prints a prompt and reads one line. io.EOF means input is exhausted.
func (c *Console) ask(prompt string) (string, error) {
	fmt.Fprint(c.out, c.st.prompt.Render(prompt))
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.in.Text(), nil
}

// askID reads an id; ok is false when the input was not an integer,
// which has already been reported
func (c *Console) askID(prompt string) (int64, bool, error) {
	line, err := c.ask(prompt)
	if err != nil {
		return 0, false, err
	}

	id, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		c.println(c.st.fail.Render("id must be an integer"))
		return 0, false, nil
	}
	return id, true, nil
}

func (c *Console) endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		c.println("")
		return nil
	}
	return fmt.Errorf("failed to read console input: %w", err)
}

func (c *Console) printMenu() {
	c.println("")
	c.println(c.st.title.Render("Commands:"))
	for _, item := range menu {
		c.println(c.st.option.Render(item))
	}
}

func (c *Console) printError(err error) {
	var validationErr *user.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.println(c.st.fail.Render(user.ErrValidation.Error() + ":"))
		for _, v := range validationErr.Violations {
			c.println(c.st.fail.Render(fmt.Sprintf("  - %s: %s", v.Field, v.Reason)))
		}
	case errors.Is(err, user.ErrStoreUnavailable):
		c.logger.WithError(err).Debug("store unavailable during console command")
		c.println(c.st.fail.Render("user store unavailable, try again later"))
	default:
		c.println(c.st.fail.Render(err.Error()))
	}
}

func (c *Console) formatUser(u user.Response) string {
	return fmt.Sprintf("%s %s %s",
		c.st.id.Render(fmt.Sprintf("#%d", u.ID)),
		u.Name,
		c.st.muted.Render("<"+u.Email+">"),
	)
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}
