package supply

// Buckets is the workflow partition of a set of purchase orders.
// Each order lands in at most one bucket; terminal Received orders are in
// none. Orders whose status could not be recognized are collected in
// Unrecognized so callers can surface them instead of losing them.
type Buckets struct {
	Schedulable        []PurchaseOrder
	Inspectable        []PurchaseOrder
	DiscrepancyPending []PurchaseOrder
	Unrecognized       []PurchaseOrder
}

// Classify partitions orders by the receiving action they are waiting for:
// Schedulable orders await a delivery date, Inspectable orders await a
// delivery inspection, DiscrepancyPending orders await rejection notes.
// Pure function; no I/O.
func Classify(orders []PurchaseOrder) Buckets {
	b := Buckets{
		Schedulable:        make([]PurchaseOrder, 0),
		Inspectable:        make([]PurchaseOrder, 0),
		DiscrepancyPending: make([]PurchaseOrder, 0),
		Unrecognized:       make([]PurchaseOrder, 0),
	}

	for _, order := range orders {
		switch order.Status {
		case StatusApproved:
			b.Schedulable = append(b.Schedulable, order)
		case StatusScheduled, StatusInTransit:
			b.Inspectable = append(b.Inspectable, order)
		case StatusPartiallyReceived:
			b.DiscrepancyPending = append(b.DiscrepancyPending, order)
		case StatusReceived, StatusDiscrepancyReported:
			// terminal, no pending action
		default:
			b.Unrecognized = append(b.Unrecognized, order)
		}
	}
	return b
}

// Counts summarizes bucket sizes for dashboards and caching
type Counts struct {
	Schedulable        int `json:"schedulable"`
	Inspectable        int `json:"inspectable"`
	DiscrepancyPending int `json:"discrepancy_pending"`
	Unrecognized       int `json:"unrecognized"`
}

// Counts returns the number of orders in each bucket
func (b Buckets) Counts() Counts {
	return Counts{
		Schedulable:        len(b.Schedulable),
		Inspectable:        len(b.Inspectable),
		DiscrepancyPending: len(b.DiscrepancyPending),
		Unrecognized:       len(b.Unrecognized),
	}
}
