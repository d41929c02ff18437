package domain

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Errorf("ParseOrderStatus(%q) failed: %v", raw, err)
		}
		if string(status) != raw {
			t.Errorf("ParseOrderStatus(%q) returned %q", raw, status)
		}
	}

	for _, raw := range []string{"", "Pending", "PENDING", "returned", "pending "} {
		if _, err := ParseOrderStatus(raw); err == nil {
			t.Errorf("ParseOrderStatus(%q) should fail", raw)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusPending:    {StatusProcessing, StatusCancelled},
		StatusProcessing: {StatusShipped, StatusCancelled},
		StatusShipped:    {StatusDelivered},
		StatusDelivered:  {},
		StatusCancelled:  {},
	}

	all := []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

	for from, nexts := range allowed {
		allowedSet := make(map[OrderStatus]bool, len(nexts))
		for _, next := range nexts {
			allowedSet[next] = true
		}
		for _, to := range all {
			got := from.CanTransitionTo(to)
			if got != allowedSet[to] {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, allowedSet[to])
			}
		}
	}
}

func TestOrderHasInvoice(t *testing.T) {
	var order Order
	if order.HasInvoice() {
		t.Error("a fresh order should not report an invoice")
	}
	order.InvoiceStoredFileName = "abc.pdf"
	if !order.HasInvoice() {
		t.Error("an order with stored metadata should report an invoice")
	}
}
