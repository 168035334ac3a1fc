package provider

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseHeleket(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    PaymentEvent
		wantErr bool
	}{
		{
			name: "paid",
			body: `{"order_id":"ord-1","payment_id":"txn-1","status":"paid","amount":"10.50","currency":"USDT"}`,
			want: PaymentEvent{Provider: "heleket", OrderRef: "ord-1", ProviderTxnID: "txn-1", Status: StatusPaid, Amount: decimal.RequireFromString("10.50"), Currency: "USDT"},
		},
		{
			name: "paid_over counts as paid",
			body: `{"order_id":"ord-2","status":"paid_over"}`,
			want: PaymentEvent{Provider: "heleket", OrderRef: "ord-2", Status: StatusPaid},
		},
		{
			name: "refund",
			body: `{"order_id":"ord-3","status":"refunded"}`,
			want: PaymentEvent{Provider: "heleket", OrderRef: "ord-3", Status: StatusRefunded},
		},
		{
			name: "intermediate status ignored",
			body: `{"order_id":"ord-4","status":"check"}`,
			want: PaymentEvent{Provider: "heleket", OrderRef: "ord-4", Status: StatusIgnored},
		},
		{
			name:    "missing order_id",
			body:    `{"status":"paid"}`,
			wantErr: true,
		},
		{
			name:    "missing status",
			body:    `{"order_id":"ord-5"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			body:    `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeleket([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want.OrderRef, got.OrderRef)
			require.Equal(t, tt.want.ProviderTxnID, got.ProviderTxnID)
			require.Equal(t, tt.want.Status, got.Status)
			require.True(t, tt.want.Amount.Equal(got.Amount))
		})
	}
}

func TestParseYooKassa(t *testing.T) {
	t.Run("payment succeeded", func(t *testing.T) {
		body := `{"event":"payment.succeeded","object":{"id":"yk-1","status":"succeeded","amount":{"value":"299.00","currency":"RUB"},"metadata":{"order_id":"ord-1"}}}`
		got, err := ParseYooKassa([]byte(body))
		require.NoError(t, err)
		require.Equal(t, "ord-1", got.OrderRef)
		require.Equal(t, "yk-1", got.ProviderTxnID)
		require.Equal(t, StatusPaid, got.Status)
		require.True(t, decimal.RequireFromString("299.00").Equal(got.Amount))
		require.Equal(t, "RUB", got.Currency)
	})

	t.Run("refund resolves by original payment id", func(t *testing.T) {
		body := `{"event":"refund.succeeded","object":{"id":"rf-1","payment_id":"yk-1","status":"succeeded","amount":{"value":"299.00","currency":"RUB"}}}`
		got, err := ParseYooKassa([]byte(body))
		require.NoError(t, err)
		require.Empty(t, got.OrderRef)
		require.Equal(t, "yk-1", got.ProviderTxnID)
		require.Equal(t, StatusRefunded, got.Status)
	})

	t.Run("pending status ignored", func(t *testing.T) {
		body := `{"event":"payment.waiting_for_capture","object":{"id":"yk-2","status":"waiting_for_capture","metadata":{"order_id":"ord-2"}}}`
		got, err := ParseYooKassa([]byte(body))
		require.NoError(t, err)
		require.Equal(t, StatusIgnored, got.Status)
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := ParseYooKassa([]byte(`{"event":"payment.succeeded"}`))
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestParseTelegram(t *testing.T) {
	t.Run("pre-checkout query", func(t *testing.T) {
		body := `{"update_id":1,"pre_checkout_query":{"id":"q-1","invoice_payload":"ord-1"}}`
		got, err := ParseTelegram([]byte(body))
		require.NoError(t, err)
		require.NotNil(t, got.PreCheckout)
		require.Equal(t, "q-1", got.PreCheckout.ID)
		require.Equal(t, "ord-1", got.PreCheckout.InvoicePayload)
		require.Nil(t, got.Event)
	})

	t.Run("successful payment", func(t *testing.T) {
		body := `{"update_id":2,"message":{"successful_payment":{"invoice_payload":"ord-2","telegram_payment_charge_id":"tg-1","total_amount":150,"currency":"XTR"}}}`
		got, err := ParseTelegram([]byte(body))
		require.NoError(t, err)
		require.NotNil(t, got.Event)
		require.Equal(t, "ord-2", got.Event.OrderRef)
		require.Equal(t, "tg-1", got.Event.ProviderTxnID)
		require.Equal(t, StatusPaid, got.Event.Status)
		require.Equal(t, "XTR", got.Event.Currency)
	})

	t.Run("unrelated update", func(t *testing.T) {
		got, err := ParseTelegram([]byte(`{"update_id":3,"message":{"text":"hi"}}`))
		require.NoError(t, err)
		require.Nil(t, got.PreCheckout)
		require.Nil(t, got.Event)
	})

	t.Run("payment without payload", func(t *testing.T) {
		_, err := ParseTelegram([]byte(`{"message":{"successful_payment":{"total_amount":1}}}`))
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestParseFreeKassa(t *testing.T) {
	t.Run("standard notification", func(t *testing.T) {
		values := url.Values{}
		values.Set("MERCHANT_ORDER_ID", "ord-1")
		values.Set("intid", "fk-1")
		values.Set("AMOUNT", "499")
		got, err := ParseFreeKassa(values)
		require.NoError(t, err)
		require.Equal(t, "ord-1", got.OrderRef)
		require.Equal(t, "fk-1", got.ProviderTxnID)
		require.Equal(t, StatusPaid, got.Status)
	})

	t.Run("missing order id", func(t *testing.T) {
		_, err := ParseFreeKassa(url.Values{"intid": {"fk-2"}})
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestParseRobokassa(t *testing.T) {
	t.Run("InvId form", func(t *testing.T) {
		values := url.Values{"InvId": {"ord-1"}, "OutSum": {"299.00"}}
		got, err := ParseRobokassa(values)
		require.NoError(t, err)
		require.Equal(t, "ord-1", got.OrderRef)
		require.Equal(t, StatusPaid, got.Status)
	})

	t.Run("inv_id fallback", func(t *testing.T) {
		got, err := ParseRobokassa(url.Values{"inv_id": {"ord-2"}})
		require.NoError(t, err)
		require.Equal(t, "ord-2", got.OrderRef)
	})

	t.Run("missing invoice id", func(t *testing.T) {
		_, err := ParseRobokassa(url.Values{"OutSum": {"299.00"}})
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestParseCrystalPay(t *testing.T) {
	t.Run("payed", func(t *testing.T) {
		body := `{"id":"cp-1","state":"payed","extra":"ord-1","amount":12.5,"currency":"USD"}`
		got, err := ParseCrystalPay([]byte(body))
		require.NoError(t, err)
		require.Equal(t, "ord-1", got.OrderRef)
		require.Equal(t, "cp-1", got.ProviderTxnID)
		require.Equal(t, StatusPaid, got.Status)
	})

	t.Run("not payed ignored", func(t *testing.T) {
		got, err := ParseCrystalPay([]byte(`{"id":"cp-2","state":"notpayed","extra":"ord-2"}`))
		require.NoError(t, err)
		require.Equal(t, StatusIgnored, got.Status)
	})

	t.Run("payed without extra", func(t *testing.T) {
		_, err := ParseCrystalPay([]byte(`{"id":"cp-3","state":"payed"}`))
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestParseGenericProviders(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) (PaymentEvent, error)
		body  string
		want  Status
	}{
		{"mulenpay success", ParseMulenPay, `{"status":"success","order_id":"ord-1","amount":100,"currency":"RUB"}`, StatusPaid},
		{"mulenpay string amount", ParseMulenPay, `{"status":"completed","orderId":"ord-2","amount":"55.10"}`, StatusPaid},
		{"urlpay paid", ParseURLPay, `{"status":"paid","order_id":"ord-3"}`, StatusPaid},
		{"tribute pending ignored", ParseTribute, `{"status":"pending","order_id":"ord-4"}`, StatusIgnored},
		{"tribute no order ignored", ParseTribute, `{"status":"success"}`, StatusIgnored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse([]byte(tt.body))
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Status)
		})
	}
}

func TestParseBTCPayServer(t *testing.T) {
	t.Run("settled", func(t *testing.T) {
		body := `{"type":"InvoiceSettled","data":{"id":"ord-1"}}`
		got, err := ParseBTCPayServer([]byte(body))
		require.NoError(t, err)
		require.Equal(t, "ord-1", got.OrderRef)
		require.Equal(t, StatusPaid, got.Status)
	})

	t.Run("expired ignored", func(t *testing.T) {
		got, err := ParseBTCPayServer([]byte(`{"type":"InvoiceExpired","data":{"id":"ord-2"}}`))
		require.NoError(t, err)
		require.Equal(t, StatusIgnored, got.Status)
	})
}

func TestParseMonobank(t *testing.T) {
	got, err := ParseMonobank([]byte(`{"invoiceId":"ord-1","status":"success"}`))
	require.NoError(t, err)
	require.Equal(t, "ord-1", got.OrderRef)
	require.Equal(t, StatusPaid, got.Status)
}
