package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ledgerforge/utxochain/foundation/blockchain/client"
	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func newNode(t *testing.T, status int, body string) *client.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return client.New(srv.URL, 5*time.Second)
}

// =============================================================================

func Test_SubmitTransaction(t *testing.T) {
	tx := database.Transaction{Type: database.TxTypeRegular, Hash: "abc"}

	t.Log("Given the need to submit a transaction to a node.")
	{
		t.Logf("\tTest 0:\tWhen the node accepts the transaction.")
		{
			cln := newNode(t, http.StatusCreated, `{"type":"REGULAR","hash":"abc"}`)

			v, err := cln.SubmitTransaction(context.Background(), tx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit: %s", failed, err)
			}
			if !v.Success || v.Message != "abc" {
				t.Fatalf("\t%s\tTest 0:\tShould get back the hash: %s", failed, v)
			}
			t.Logf("\t%s\tTest 0:\tShould get back the hash.", success)
		}

		t.Logf("\tTest 1:\tWhen the node rejects the transaction.")
		{
			cln := newNode(t, http.StatusBadRequest, `{"success":false,"message":"Sender wallet already has a pending transaction"}`)

			v, err := cln.SubmitTransaction(context.Background(), tx)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit: %s", failed, err)
			}
			if v.Success || v.Message != "Sender wallet already has a pending transaction" {
				t.Fatalf("\t%s\tTest 1:\tShould get back the reason: %s", failed, v)
			}
			t.Logf("\t%s\tTest 1:\tShould get back the reason.", success)
		}

		t.Logf("\tTest 2:\tWhen the node can't read the transaction.")
		{
			cln := newNode(t, http.StatusBadRequest, `{"error":"unable to decode payload"}`)

			_, err := cln.SubmitTransaction(context.Background(), tx)
			if !client.IsStatus(err, http.StatusBadRequest) {
				t.Fatalf("\t%s\tTest 2:\tShould get back an error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould get back an error.", success)

			if got := err.Error(); got != "node responded 400: unable to decode payload" {
				t.Fatalf("\t%s\tTest 2:\tShould keep the reason: %s", failed, got)
			}
			t.Logf("\t%s\tTest 2:\tShould keep the reason.", success)
		}
	}
}

func Test_NextBlockInfo(t *testing.T) {
	t.Log("Given the need to ask a node for the next block.")
	{
		cln := newNode(t, http.StatusOK, `null`)

		_, exists, err := cln.NextBlockInfo(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to ask: %s", failed, err)
		}
		if exists {
			t.Fatalf("\t%s\tShould have nothing to mine.", failed)
		}
		t.Logf("\t%s\tShould have nothing to mine.", success)

		cln = newNode(t, http.StatusInternalServerError, `{"error":"Internal Server Error"}`)
		if _, _, err := cln.NextBlockInfo(context.Background()); !client.IsStatus(err, http.StatusInternalServerError) {
			t.Fatalf("\t%s\tShould get back the status: %v", failed, err)
		}
		t.Logf("\t%s\tShould get back the status.", success)
	}
}
