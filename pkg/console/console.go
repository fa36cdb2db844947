// Package console implements the interactive order menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"orderdesk/pkg/order"
)

const menu = `choose an action:
1. add order
2. delete order
3. update order
4. query orders
5. exit
`

// errClosed reports that the input ran out mid-prompt.
var errClosed = errors.New("input closed")

// Console drives an order.Service from line-oriented text input.
type Console struct {
	orders *order.Service
	in     *bufio.Scanner
	out    io.Writer
}

// New returns a Console reading commands from in and writing to out.
func New(orders *order.Service, in io.Reader, out io.Writer) *Console {
	return &Console{orders: orders, in: bufio.NewScanner(in), out: out}
}

// Run loops over the menu until the user exits or input ends.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, menu)
		choice, err := c.readLine("")
		if err != nil {
			return c.finish(err)
		}
		switch strings.TrimSpace(choice) {
		case "1":
			err = c.add(ctx)
		case "2":
			err = c.delete(ctx)
		case "3":
			err = c.update(ctx)
		case "4":
			err = c.query(ctx)
		case "5":
			return nil
		default:
			fmt.Fprintln(c.out, "invalid choice, try again")
		}
		if err != nil {
			return c.finish(err)
		}
	}
}

func (c *Console) finish(err error) error {
	if errors.Is(err, errClosed) {
		return nil
	}
	return err
}

func (c *Console) add(ctx context.Context) error {
	id, err := c.readLine("order id: ")
	if err != nil {
		return err
	}
	customer, err := c.readLine("customer: ")
	if err != nil {
		return err
	}

	var items []order.LineItem
	for {
		name, err := c.readLine("product name ('exit' to finish): ")
		if err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(name), "exit") {
			break
		}
		amount, err := c.readAmount("amount: ")
		if err != nil {
			return err
		}
		items = append(items, order.LineItem{ProductName: name, Amount: amount})
	}

	c.report(c.orders.AddOrder(ctx, id, customer, items), "order added")
	return nil
}

func (c *Console) delete(ctx context.Context) error {
	id, err := c.readLine("order id to delete: ")
	if err != nil {
		return err
	}
	c.report(c.orders.DeleteOrder(ctx, id), "order deleted")
	return nil
}

func (c *Console) update(ctx context.Context) error {
	id, err := c.readLine("order id to update: ")
	if err != nil {
		return err
	}
	customer, err := c.readLine("new customer: ")
	if err != nil {
		return err
	}
	c.report(c.orders.UpdateOrder(ctx, id, customer), "order updated")
	return nil
}

func (c *Console) query(ctx context.Context) error {
	keyword, err := c.readLine("keyword (optional): ")
	if err != nil {
		return err
	}
	q := order.Query{Keyword: keyword}
	if q.MinAmount, err = c.readOptionalAmount("minimum total (optional): "); err != nil {
		return err
	}
	if q.MaxAmount, err = c.readOptionalAmount("maximum total (optional): "); err != nil {
		return err
	}

	orders, err := c.orders.QueryOrders(ctx, q)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return nil
	}
	fmt.Fprintln(c.out, "results:")
	for _, o := range orders {
		fmt.Fprintln(c.out, o)
	}
	return nil
}

func (c *Console) report(err error, success string) {
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	fmt.Fprintln(c.out, success)
}

func (c *Console) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", errClosed
	}
	return strings.TrimRight(c.in.Text(), "\r"), nil
}

func (c *Console) readAmount(prompt string) (float64, error) {
	for {
		p, err := c.readOptionalAmount(prompt)
		if err != nil {
			return 0, err
		}
		if p != nil {
			return *p, nil
		}
		fmt.Fprintln(c.out, "invalid amount, try again")
	}
}

// readOptionalAmount returns nil for a blank line and re-prompts on anything
// that is not a finite number.
func (c *Console) readOptionalAmount(prompt string) (*float64, error) {
	for {
		line, err := c.readLine(prompt)
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(line, 64)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return &v, nil
		}
		fmt.Fprintln(c.out, "invalid amount, try again")
	}
}
