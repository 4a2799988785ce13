package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zeusync/plantit/internal/core/ecs"
	"github.com/zeusync/plantit/internal/core/observability/log"
	"github.com/zeusync/plantit/internal/core/storage"
	"github.com/zeusync/plantit/internal/plant"
)

const prompt = "> "

var ErrUsage = errors.New("usage")

type handler func(ctx context.Context, args []string) error

// App is the line-oriented PlantIt shell.
type App struct {
	service *plant.Service
	gateway *storage.Gateway
	store   *ecs.Store
	logger  log.Log

	in  io.Reader
	out io.Writer

	commands map[string]handler
}

func New(service *plant.Service, gateway *storage.Gateway, store *ecs.Store, logger log.Log, in io.Reader, out io.Writer) *App {
	a := &App{
		service: service,
		gateway: gateway,
		store:   store,
		logger:  logger,
		in:      in,
		out:     out,
	}
	a.commands = map[string]handler{
		"add":    a.add,
		"delete": a.delete,
		"water":  a.water,
		"info":   a.info,
		"list":   a.list,
		"save":   a.save,
		"load":   a.load,
	}
	return a
}

// Start loads the snapshot file if there is one.
func (a *App) Start(ctx context.Context) error {
	loaded, err := a.gateway.LoadIfExists(ctx, a.store, a.service.Path())
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	a.logger.Debug("shell started", log.Bool("loaded", loaded), log.Int("plants", a.service.Count()))
	return nil
}

// Run reads commands until quit, end of input or ctx is done. Command errors
// are printed and do not stop the loop. quit does not save.
func (a *App) Run(ctx context.Context) error {
	a.printf("~~ Welcome to PlantIt ~~\n")
	a.printf("You have (%d) plants\n", a.service.Count())

	scanner := bufio.NewScanner(a.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.printf(prompt)
		if !scanner.Scan() {
			break
		}

		quit, err := a.Execute(ctx, scanner.Text())
		if err != nil {
			a.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// Execute runs one command line and reports whether it was quit.
func (a *App) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	name, args := fields[0], fields[1:]
	if name == "quit" || name == "exit" {
		return true, nil
	}
	cmd, ok := a.commands[name]
	if !ok {
		return false, fmt.Errorf("unknown command %q (add, delete, water, info, list -a, save, load, quit)", name)
	}
	return false, cmd(ctx, args)
}

func (a *App) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: add <key> [description...]", ErrUsage)
	}
	if _, err := a.service.Add(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	a.printf("added %s\n", args[0])
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete <key>", ErrUsage)
	}
	n, err := a.service.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("deleted %d plant(s) named %s\n", n, args[0])
	return nil
}

func (a *App) water(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: water <key>", ErrUsage)
	}
	p, err := a.service.Water(ctx, args[0])
	if err != nil {
		return err
	}
	at, _ := p.LastWatered()
	a.printf("watered %s at %s\n", p.Key, formatTime(at))
	return nil
}

func (a *App) info(_ context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: info <key>", ErrUsage)
	}
	p, err := a.service.Info(args[0])
	if err != nil {
		return err
	}
	a.printPlant(p)
	return nil
}

func (a *App) list(_ context.Context, args []string) error {
	if len(args) != 1 || args[0] != "-a" {
		return fmt.Errorf("%w: list -a", ErrUsage)
	}
	plants := a.service.List()
	if len(plants) == 0 {
		a.printf("no plants\n")
		return nil
	}
	for _, p := range plants {
		a.printPlant(p)
	}
	return nil
}

func (a *App) save(ctx context.Context, _ []string) error {
	a.printf("saving...\n")
	return a.service.Save(ctx)
}

func (a *App) load(ctx context.Context, _ []string) error {
	a.printf("loading...\n")
	loaded, err := a.gateway.LoadIfExists(ctx, a.store, a.service.Path())
	if err != nil {
		return err
	}
	if !loaded {
		a.printf("no snapshot at %s\n", a.service.Path())
		return nil
	}
	a.printf("You have (%d) plants\n", a.service.Count())
	return nil
}

func (a *App) printPlant(p plant.Plant) {
	a.printf("~~~~~ %s ~~~~~\n", p.Key)
	a.printf("Description: %s\n", p.Description)
	if len(p.WateredAt) == 0 {
		a.printf("Plant has never been watered!\n")
	} else {
		for _, at := range p.WateredAt {
			a.printf("Watered at: %s\n", formatTime(at))
		}
		a.printf("Watered: %d times\n", len(p.WateredAt))
	}
	a.printf("~~~~~~~~~~~~\n")
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("15:04:05 GMT 2/1/2006")
}
