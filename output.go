package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kwv/starchart/traders"
)

var (
	colorDim  = lipgloss.Color("240")
	colorGray = lipgloss.Color("245")

	headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// writeTable renders rows under headers with rounded borders.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func itoa(n int) string { return strconv.Itoa(n) }

func credits(n int64) string { return strconv.FormatInt(n, 10) }

func ratio(a, b int) string { return fmt.Sprintf("%d/%d", a, b) }

func shipRows(ships []traders.Ship, now time.Time) [][]string {
	rows := make([][]string, 0, len(ships))
	for _, s := range ships {
		eta := "-"
		if s.Nav.Status == traders.StatusInTransit {
			eta = traders.FormatHMS(traders.TimeRemaining(s.Nav.Route, now))
		}
		rows = append(rows, []string{
			s.Symbol,
			s.Registration.Role,
			s.Nav.Status,
			s.Nav.WaypointSymbol,
			traders.ShortFlightMode(s.Nav.FlightMode),
			ratio(s.Fuel.Current, s.Fuel.Capacity),
			ratio(s.Cargo.Units, s.Cargo.Capacity),
			eta,
		})
	}
	return rows
}

func cargoRows(c traders.ShipCargo) [][]string {
	rows := make([][]string, 0, len(c.Inventory))
	for _, item := range c.Inventory {
		rows = append(rows, []string{item.Symbol, item.Name, itoa(item.Units)})
	}
	return rows
}

func waypointRows(wps []traders.Waypoint) [][]string {
	rows := make([][]string, 0, len(wps))
	for _, w := range wps {
		traits := make([]string, len(w.Traits))
		for i, t := range w.Traits {
			traits[i] = t.Symbol
		}
		rows = append(rows, []string{w.Symbol, w.Type, fmt.Sprintf("%d,%d", w.X, w.Y), w.FactionSymbol(), strings.Join(traits, ", ")})
	}
	return rows
}

func marketRows(m traders.Market) [][]string {
	var rows [][]string
	if len(m.TradeGoods) > 0 {
		for _, g := range m.TradeGoods {
			rows = append(rows, []string{g.Symbol, g.Supply, itoa(g.TradeVolume), credits(g.PurchasePrice), credits(g.SellPrice)})
		}
		return rows
	}
	for _, list := range []struct {
		kind  string
		goods []traders.TradeGood
	}{{"export", m.Exports}, {"import", m.Imports}, {"exchange", m.Exchange}} {
		for _, g := range list.goods {
			rows = append(rows, []string{g.Symbol, list.kind, "-", "-", "-"})
		}
	}
	return rows
}
