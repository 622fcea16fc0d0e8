package state

import (
	"sync"
	"testing"

	"toronet-wallet/internal/models"
)

func TestQueryLifecycle(t *testing.T) {
	s := NewStore()

	if got := s.Query(Balances).Status; got != models.StatusIdle {
		t.Errorf("initial status = %v, want idle", got)
	}

	s.BeginQuery(Balances)
	if got := s.Query(Balances).Status; got != models.StatusPending {
		t.Errorf("status = %v, want pending", got)
	}

	s.ResolveQuery(Balances, map[string]string{"bal_toro": "10"})
	snap := s.Query(Balances)
	if snap.Status != models.StatusSucceeded || snap.Values["bal_toro"] != "10" {
		t.Errorf("snapshot = %+v", snap)
	}

	s.BeginQuery(Balances)
	s.RejectQuery(Balances, "Ledger offline")
	snap = s.Query(Balances)
	if snap.Status != models.StatusFailed || snap.Error != "Ledger offline" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Values["bal_toro"] != "10" {
		t.Errorf("failed query dropped previous values: %v", snap.Values)
	}
}

func TestQueryReturnsCopy(t *testing.T) {
	s := NewStore()
	s.ResolveQuery(Rates, map[string]string{"rate_dollar": "1"})

	snap := s.Query(Rates)
	snap.Values["rate_dollar"] = "999"

	if got := s.Query(Rates).Values["rate_dollar"]; got != "1" {
		t.Errorf("store mutated through snapshot: %v", got)
	}
}

func TestStatusIsolation(t *testing.T) {
	s := NewStore()
	s.ResolveQuery(Balances, map[string]string{"bal_toro": "10"})

	s.BeginQuery(Rates)
	s.RejectQuery(Rates, "boom")

	snap := s.Query(Balances)
	if snap.Status != models.StatusSucceeded || snap.Values["bal_toro"] != "10" {
		t.Errorf("balances changed by rates failure: %+v", snap)
	}
}

func TestMergeQuery(t *testing.T) {
	s := NewStore()
	s.MergeQuery(BalanceKind(models.Currency), map[string]string{"bal_dollar": "1"})
	s.MergeQuery(BalanceKind(models.Currency), map[string]string{"bal_euro": "2"})

	snap := s.Query("currency_balance")
	if len(snap.Values) != 2 {
		t.Errorf("values = %v, want both keys", snap.Values)
	}
}

func TestActivities(t *testing.T) {
	s := NewStore()
	key := ActivityKey{Activity: Calculating, Kind: models.Transfer, AssetID: "dollar"}
	other := ActivityKey{Activity: Calculating, Kind: models.Transfer, AssetID: "euro"}

	s.SetActivity(key, models.StatusPending, "")
	if got := s.Activity(key).Status; got != models.StatusPending {
		t.Errorf("status = %v, want pending", got)
	}
	if got := s.Activity(other).Status; got != models.StatusIdle {
		t.Errorf("other status = %v, want idle", got)
	}

	s.SetActivity(key, models.StatusFailed, "Insufficient balance")
	if got := s.Activity(key); got.Status != models.StatusFailed || got.Message != "Insufficient balance" {
		t.Errorf("activity = %+v", got)
	}

	s.SetActivity(key, models.StatusIdle, "")
	if len(s.Activities()) != 0 {
		t.Errorf("Activities() = %v, want empty", s.Activities())
	}
}

func TestSubscribe(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe(4)

	s.BeginQuery(Balances)
	s.ResolveQuery(Balances, nil)

	first := <-ch
	second := <-ch
	if first.Query != Balances || first.Status != models.StatusPending {
		t.Errorf("first change = %+v", first)
	}
	if second.Status != models.StatusSucceeded {
		t.Errorf("second change = %+v", second)
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	s := NewStore()
	_, cancel := s.Subscribe(1)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.BeginQuery(Rates)
		}
	}()
	wg.Wait()
}

func TestReset(t *testing.T) {
	s := NewStore()
	s.ResolveQuery(Balances, map[string]string{"bal_toro": "1"})
	s.ResolveTransactions(Transactions, []models.Transaction{{Hash: "0x1"}})
	s.ResolveLinks([]byte(`["0xext"]`))

	s.Reset()

	if len(s.Query(Balances).Values) != 0 || len(s.Transactions(Transactions)) != 0 || len(s.LinkedAddresses()) != 0 {
		t.Error("Reset() left identity data behind")
	}
}

func TestAbandonQuery(t *testing.T) {
	s := NewStore()
	s.ResolveQuery(Balances, map[string]string{"bal_toro": "1"})
	prev := s.Query(Balances)

	s.BeginQuery(Balances)
	s.AbandonQuery(Balances, prev)

	if got := s.Query(Balances).Status; got != models.StatusSucceeded {
		t.Errorf("status = %v, want succeeded", got)
	}

	s.BeginQuery(Rates)
	s.AbandonQuery(Rates, Snapshot{})
	if got := s.Query(Rates).Status; got != models.StatusIdle {
		t.Errorf("status = %v, want idle", got)
	}
}
