package domain

// DeliveryReport summarizes one broadcast.
type DeliveryReport struct {
	Attempted int
	Delivered int
	Failed    int
}
