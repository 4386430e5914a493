package services

import (
	"chat-exchange/domain"
	"chat-exchange/infrastructure/privatbank"
	"chat-exchange/mocks"
	"chat-exchange/runtime"
	"chat-exchange/sink"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var today = time.Date(2024, time.March, 2, 15, 4, 5, 0, time.UTC)

type names []string

func (n *names) Generate() string {
	name := (*n)[0]
	*n = (*n)[1:]
	return name
}

type fixture struct {
	ctrl      *gomock.Controller
	registry  *runtime.Registry
	fetcher   *mocks.MockRateFetcher
	audit     *mocks.MockAuditSink
	processor *CommandProcessor
	sender    *domain.Peer
	senderWS  *mocks.MockConn
	other     *domain.Peer
	otherWS   *mocks.MockConn
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := runtime.NewRegistry(log, &names{"Ada Lovelace", "Alan Turing"})
	hub := runtime.NewHub(log, time.Second)
	fetcher := mocks.NewMockRateFetcher(ctrl)
	audit := mocks.NewMockAuditSink(ctrl)

	senderWS := mocks.NewMockConn(ctrl)
	senderWS.EXPECT().RemoteAddr().Return("127.0.0.1:5001").AnyTimes()
	otherWS := mocks.NewMockConn(ctrl)
	otherWS.EXPECT().RemoteAddr().Return("127.0.0.1:5002").AnyTimes()

	processor := NewCommandProcessor(log, registry, hub, fetcher, audit, time.Second)
	processor.now = func() time.Time { return today }

	return &fixture{
		ctrl:      ctrl,
		registry:  registry,
		fetcher:   fetcher,
		audit:     audit,
		processor: processor,
		sender:    registry.Admit(senderWS),
		senderWS:  senderWS,
		other:     registry.Admit(otherWS),
		otherWS:   otherWS,
	}
}

func archive(date string, currencies ...string) *domain.RateResponse {
	entries := make([]string, 0, len(currencies))
	for _, c := range currencies {
		entries = append(entries, fmt.Sprintf(
			`{"baseCurrency":"UAH","currency":%q,"saleRate":41.9,"purchaseRate":40.9}`, c))
	}
	resp, err := domain.ParseRateResponse([]byte(fmt.Sprintf(
		`{"date":%q,"bank":"PB","baseCurrency":980,"baseCurrencyLit":"UAH","exchangeRate":[%s]}`,
		date, strings.Join(entries, ","))))
	if err != nil {
		panic(err)
	}
	return resp
}

func TestCommandProcessor_Chat_Is_Broadcast_With_Name(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()

	// Then every peer, sender included, receives the prefixed message
	f.senderWS.EXPECT().Send(gomock.Any(), "Ada Lovelace: hello there").Return(nil).Times(1)
	f.otherWS.EXPECT().Send(gomock.Any(), "Ada Lovelace: hello there").Return(nil).Times(1)

	req.NoError(f.processor.Handle(context.Background(), f.sender, "hello there"))
}

func TestCommandProcessor_Chat_Mentioning_Exchange(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()

	f.senderWS.EXPECT().Send(gomock.Any(), "Ada Lovelace: exchanger 2").Return(nil).Times(1)
	f.otherWS.EXPECT().Send(gomock.Any(), "Ada Lovelace: exchanger 2").Return(nil).Times(1)

	req.NoError(f.processor.Handle(context.Background(), f.sender, "exchanger 2"))
}

func TestCommandProcessor_Chat_With_Dropped_Peer(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()

	// Given the other peer disconnected mid-broadcast
	f.otherWS.EXPECT().Send(gomock.Any(), gomock.Any()).Return(fmt.Errorf("broken pipe")).Times(1)
	f.senderWS.EXPECT().Send(gomock.Any(), "Ada Lovelace: still here").Return(nil).Times(1)

	req.NoError(f.processor.Handle(context.Background(), f.sender, "still here"))
}

func TestCommandProcessor_Usage_Reply_Is_Private(t *testing.T) {
	req := require.New(t)
	for _, msg := range []string{"exchange", "exchange 2 EUR extra"} {
		f := newFixture(t)
		// Only the sender is answered, nothing is fetched, broadcast or audited
		f.senderWS.EXPECT().Send(gomock.Any(), UsageMessage).Return(nil).Times(1)

		req.NoError(f.processor.Handle(context.Background(), f.sender, msg))
		f.ctrl.Finish()
	}
}

func TestCommandProcessor_Parse_Error_Reply_Is_Private(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()

	var reply string
	f.senderWS.EXPECT().Send(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, msg string) { reply = msg }).
		Return(nil).Times(1)

	req.NoError(f.processor.Handle(context.Background(), f.sender, "exchange two"))
	req.Equal(`Error: invalid number of days: "two" is not an integer`, reply)
}

func TestCommandProcessor_Range_Error_Reply_Is_Private(t *testing.T) {
	req := require.New(t)
	for _, msg := range []string{"exchange 0", "exchange 11", "exchange -1 EUR", "exchange 99999999999999999999"} {
		f := newFixture(t)
		f.senderWS.EXPECT().Send(gomock.Any(), "Number of days should be between 1 and 10").Return(nil).Times(1)

		req.NoError(f.processor.Handle(context.Background(), f.sender, msg))
		f.ctrl.Finish()
	}
}

func TestCommandProcessor_Reply_Failure_Is_Returned(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()

	f.senderWS.EXPECT().Send(gomock.Any(), UsageMessage).Return(fmt.Errorf("closed")).Times(1)

	err := f.processor.Handle(context.Background(), f.sender, "exchange")
	req.Error(err)
	req.Contains(err.Error(), "Ada Lovelace")
}

func TestCommandProcessor_Exchange_With_One_Failed_Date(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()

	// Given today's archive is available and yesterday's fetch failed
	f.fetcher.EXPECT().FetchRange(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, dates domain.DateRange) domain.RateQueryResult {
			req.Len(dates, 2)
			req.Equal(time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), dates[0])
			req.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), dates[1])
			return domain.RateQueryResult{
				{Date: dates[0], Response: archive("02.03.2024", "CHF", "EUR", "USD")},
				{Date: dates[1], Err: fmt.Errorf("timeout")},
			}
		}).Times(1)

	var senderGot, otherGot string
	f.senderWS.EXPECT().Send(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, msg string) { senderGot = msg }).Return(nil).Times(1)
	f.otherWS.EXPECT().Send(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, msg string) { otherGot = msg }).Return(nil).Times(1)

	var audited domain.AuditRecord
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, r domain.AuditRecord) { audited = r }).Return(nil).Times(1)

	// When the command is sent
	req.NoError(f.processor.Handle(context.Background(), f.sender, "exchange 2"))

	// Then every peer receives exactly the successful date's EUR and USD entries
	req.Equal(senderGot, otherGot)
	var records []map[string]any
	req.NoError(json.Unmarshal([]byte(senderGot), &records))
	req.Len(records, 2)
	req.Equal("EUR", records[0]["currency"])
	req.Equal("USD", records[1]["currency"])
	for _, r := range records {
		req.Equal("02.03.2024", r["date"])
	}
	req.Contains(senderGot, "\n  {\n    \"date\": \"02.03.2024\",")

	// And one audit record is appended
	req.Equal(today, audited.At)
	req.Equal("127.0.0.1:5001", audited.Addr)
	req.Equal(2, audited.Days)
	req.Equal(domain.CurrencySelection{"EUR", "USD"}, audited.Currencies)
	req.Equal(senderGot, audited.Document)
}

func TestCommandProcessor_Exchange_Unknown_Currency_Is_Empty_Array(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()

	f.fetcher.EXPECT().FetchRange(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, dates domain.DateRange) domain.RateQueryResult {
			req.Len(dates, 3)
			return domain.RateQueryResult{
				{Date: dates[0], Response: archive("02.03.2024", "EUR", "USD")},
				{Date: dates[1], Response: archive("01.03.2024", "EUR", "USD")},
				{Date: dates[2], Response: archive("29.02.2024", "EUR", "USD")},
			}
		}).Times(1)

	// Then the empty document still reaches all peers
	f.senderWS.EXPECT().Send(gomock.Any(), "[]").Return(nil).Times(1)
	f.otherWS.EXPECT().Send(gomock.Any(), "[]").Return(nil).Times(1)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, r domain.AuditRecord) {
			req.Equal("2024-03-02 15:04:05 - 127.0.0.1:5001 - exchange 3 GBP - []\n", r.Line())
		}).Return(nil).Times(1)

	req.NoError(f.processor.Handle(context.Background(), f.sender, "exchange 3 GBP"))
}

func TestCommandProcessor_Audit_Failure_Is_Absorbed(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()

	f.fetcher.EXPECT().FetchRange(gomock.Any(), gomock.Any()).Return(domain.RateQueryResult{
		{Date: today, Response: archive("02.03.2024", "EUR")},
	}).Times(1)
	f.senderWS.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	f.otherWS.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)

	req.NoError(f.processor.Handle(context.Background(), f.sender, "exchange 1"))
}

func TestCommandProcessor_Exchange_Against_Upstream_With_One_Failed_Date(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	defer f.ctrl.Finish()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Given an upstream serving today's archive and failing yesterday's
	var requested sync.Map
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		requested.Store(date, true)
		if date != "02.03.2024" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"date":"02.03.2024","bank":"PB","baseCurrency":980,"exchangeRate":[
			{"currency":"CHF","saleRate":44.1},
			{"currency":"EUR","saleRate":41.9,"rateNB":41.1},
			{"currency":"USD","saleRate":38.6}]}`))
	}))
	defer upstream.Close()

	client := privatbank.NewClient(log, upstream.Client(), privatbank.Config{
		BaseURL: upstream.URL,
		Timeout: time.Second,
	}, nil)
	f.processor.fetcher = runtime.NewRateFetcher(client, log)
	auditPath := filepath.Join(t.TempDir(), "exchange.log")
	f.processor.audit = sink.NewAuditSink(auditPath, log)

	expected := "[\n" +
		"  {\n    \"date\": \"02.03.2024\",\n    \"currency\": \"EUR\",\n    \"saleRate\": 41.9,\n    \"rateNB\": 41.1\n  },\n" +
		"  {\n    \"date\": \"02.03.2024\",\n    \"currency\": \"USD\",\n    \"saleRate\": 38.6\n  }\n" +
		"]"
	f.senderWS.EXPECT().Send(gomock.Any(), expected).Return(nil).Times(1)
	f.otherWS.EXPECT().Send(gomock.Any(), expected).Return(nil).Times(1)

	// When two days are requested
	req.NoError(f.processor.Handle(context.Background(), f.sender, "exchange 2"))

	// Then both dates were queried and the audit line carries the broadcast document
	_, todayQueried := requested.Load("02.03.2024")
	_, yesterdayQueried := requested.Load("01.03.2024")
	req.True(todayQueried)
	req.True(yesterdayQueried)
	audit, err := os.ReadFile(auditPath)
	req.NoError(err)
	req.Equal("2024-03-02 15:04:05 - 127.0.0.1:5001 - exchange 2 EUR,USD - "+expected+"\n", string(audit))
}
