package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLineItems(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		items   []LineItem
		dropped []string
	}{
		{
			name:  "two items",
			text:  "Widget A x3, Widget B x1",
			items: []LineItem{{Name: "Widget A", Qty: 3}, {Name: "Widget B", Qty: 1}},
		},
		{
			name:    "fragment without quantity is dropped",
			text:    "Widget A x3, Widget C",
			items:   []LineItem{{Name: "Widget A", Qty: 3}},
			dropped: []string{"Widget C"},
		},
		{
			name:  "name containing x",
			text:  "Box x2 large x4",
			items: []LineItem{{Name: "Box x2 large", Qty: 4}},
		},
		{
			name:  "blank fragments ignored",
			text:  " , Lamp x1, ",
			items: []LineItem{{Name: "Lamp", Qty: 1}},
		},
		{
			name:    "missing space before quantity",
			text:    "Lampx1",
			dropped: []string{"Lampx1"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, dropped := ParseLineItems(tc.text)
			require.Equal(t, tc.items, items)
			require.Equal(t, tc.dropped, dropped)
		})
	}
}

func TestSyncTransitions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	order := Order{Sync: Sync{Status: StatusError, RemoteClientID: 8, Error: "boom", Warnings: []string{"old"}}}
	require.True(t, order.Eligible())

	order.Sync.MarkPending()
	require.Equal(t, StatusPending, order.Sync.Status)
	require.Empty(t, order.Sync.Warnings)

	order.Sync.MarkFailed(strings.Repeat("è", 250))
	require.Equal(t, StatusError, order.Sync.Status)
	require.Equal(t, MaxErrorLength, len([]rune(order.Sync.Error)))
	require.Equal(t, int64(8), order.Sync.RemoteClientID)

	order.Sync.MarkImported(99, now)
	require.Equal(t, StatusImported, order.Sync.Status)
	require.Empty(t, order.Sync.Error)
	require.Equal(t, now, *order.Sync.SyncedAt)
	require.False(t, order.Eligible())
}

func TestBuildDocument(t *testing.T) {
	date := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)
	order := Order{Number: "#1001", Date: date, Total: 42, TransactionID: "tx-1"}
	opts := DocumentOptions{Type: "invoice", VATRate: 22, Account: PaymentAccount{ID: 3, Name: "Bonifico bancario"}}

	doc := BuildDocument(order, 7, nil, opts, today)
	require.Equal(t, int64(1001), doc.Number)
	require.Equal(t, "Ordine #1001", doc.Subject)
	require.Equal(t, today, doc.Payment.DueDate)
	require.Equal(t, date, *doc.Payment.PaidDate)

	order.TransactionID = " "
	order.Number = "WEB-9"
	doc = BuildDocument(order, 7, nil, opts, today)
	require.Nil(t, doc.Payment.PaidDate)
	require.Zero(t, doc.Number)
}

func TestValidate(t *testing.T) {
	require.ErrorIs(t, Order{}.Validate(), ErrMissingNumber)
	require.ErrorIs(t, Order{Number: "1"}.Validate(), ErrMissingDate)
	require.NoError(t, Order{Number: "1", Date: time.Now()}.Validate())
	require.ErrorIs(t, Order{Number: "1", Date: time.Now(), UnreadableTotal: "n/a"}.Validate(), ErrBadTotal)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{raw: "", want: 0},
		{raw: "49.90", want: 49.9},
		{raw: "49,90", want: 49.9},
		{raw: "€ 49,90", want: 49.9},
		{raw: "$49.90", want: 49.9},
		{raw: "1.234,50", want: 1234.5},
		{raw: "1,234.50", want: 1234.5},
		{raw: "€ 1.234,50", want: 1234.5},
		{raw: "1.234,50 €", want: 1234.5},
		{raw: "EUR 1 234,50", want: 1234.5},
		{raw: "1.234.567", want: 1234567},
		{raw: "1,234,567.89", want: 1234567.89},
		{raw: "-5,00", want: -5},
		{raw: "120", want: 120},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseAmount(tc.raw)
			require.NoError(t, err)
			require.InDelta(t, tc.want, got, 1e-9)
		})
	}

	for _, raw := range []string{"abc", "12abc", "1.234,50,00", "0x1p3", "inf", "NaN", "1-2"} {
		t.Run("rejects "+raw, func(t *testing.T) {
			_, err := ParseAmount(raw)
			require.ErrorIs(t, err, ErrBadTotal)
		})
	}
}
