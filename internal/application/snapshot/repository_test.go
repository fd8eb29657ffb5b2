package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/payment"
)

func testData() Data {
	return Data{
		Clients: []client.Client{{ID: "1", Name: "Ana"}, {ID: "2", Name: "Luis"}},
		Payments: []payment.Payment{
			{ID: "10", ClientID: "1", Paid: true},
			{ID: "11", ClientID: "2"},
			{ID: "12", ClientID: "1"},
		},
		FetchedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// TestNew_CopiesInput verifies that later changes to the input do not leak in.
func TestNew_CopiesInput(t *testing.T) {
	d := testData()
	s := New(d)
	d.Clients[0].Name = "changed"
	d.Payments[0].Paid = false

	if c, _ := s.Client("1"); c.Name != "Ana" {
		t.Errorf("client name = %q, want Ana", c.Name)
	}
	if !s.Payments()[0].Paid {
		t.Error("payment changed through the input slice")
	}
}

// TestAccessors_ReturnCopies verifies that callers cannot mutate shared state.
func TestAccessors_ReturnCopies(t *testing.T) {
	s := New(testData())
	clients := s.Clients()
	clients[0].Name = "changed"
	payments := s.PaymentsOf("1")
	payments[0].ID = "changed"

	if c, _ := s.Client("1"); c.Name != "Ana" {
		t.Error("Clients() exposed internal state")
	}
	if s.PaymentsOf("1")[0].ID != "10" {
		t.Error("PaymentsOf() exposed internal state")
	}
}

// TestPaymentsOf verifies the per-client index.
func TestPaymentsOf(t *testing.T) {
	s := New(testData())
	if got := s.PaymentsOf("1"); len(got) != 2 || got[0].ID != "10" || got[1].ID != "12" {
		t.Errorf("PaymentsOf(1) = %+v", got)
	}
	if got := s.PaymentsOf("nobody"); len(got) != 0 {
		t.Errorf("PaymentsOf(nobody) = %+v", got)
	}
	if _, ok := s.Client("nobody"); ok {
		t.Error("Client(nobody) found")
	}
}

// TestRepository_Refresh verifies publishing and failure handling.
func TestRepository_Refresh(t *testing.T) {
	var fail bool
	repo := NewRepository(SourceFunc(func(ctx context.Context) (Data, error) {
		if fail {
			return Data{}, errors.New("source down")
		}
		return testData(), nil
	}))

	if !repo.Current().IsEmpty() {
		t.Fatal("new repository should start empty")
	}
	s, err := repo.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if repo.Current() != s || len(s.Clients()) != 2 {
		t.Fatal("Refresh did not publish")
	}

	fail = true
	kept, err := repo.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected an error from a failing source")
	}
	if kept != s || repo.Current() != s {
		t.Error("failed refresh must keep the previous snapshot")
	}
}

// TestRepository_ConcurrentReaders verifies readers see whole snapshots while refreshing.
func TestRepository_ConcurrentReaders(t *testing.T) {
	repo := NewRepository(SourceFunc(func(ctx context.Context) (Data, error) { return testData(), nil }))
	repo.Publish(testData())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				repo.Refresh(context.Background())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := repo.Current()
				if len(s.Clients()) != 2 || len(s.Payments()) != 3 {
					t.Error("reader saw a partial snapshot")
					return
				}
			}
		}()
	}
	wg.Wait()
}

// TestCounts verifies the per-collection sizes.
func TestCounts(t *testing.T) {
	c := New(testData()).Counts()
	if c["clientes"] != 2 || c["pagos"] != 3 || c["asistencias"] != 0 {
		t.Errorf("Counts() = %v", c)
	}
}

// TestInvalidPaymentDates verifies only paid payments without a readable date are counted.
func TestInvalidPaymentDates(t *testing.T) {
	if n := New(testData()).InvalidPaymentDates(); n != 1 {
		t.Errorf("InvalidPaymentDates() = %d, want 1", n)
	}
	if n := Empty().InvalidPaymentDates(); n != 0 {
		t.Errorf("empty snapshot: got %d", n)
	}
}
