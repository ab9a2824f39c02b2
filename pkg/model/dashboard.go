package model

// DashboardSummary is the owner-facing aggregate over the booking store.
// MonthlyRevenue sums the price of every confirmed booking regardless of
// date; the name is historical and no time-window filter is applied.
type DashboardSummary struct {
	TotalVehicles     int64      `json:"total_vehicles"`
	TotalBookings     int64      `json:"total_bookings"`
	PendingBookings   int64      `json:"pending_bookings"`
	ConfirmedBookings int64      `json:"confirmed_bookings"`
	RecentBookings    []*Booking `json:"recent_bookings"`
	MonthlyRevenue    int64      `json:"monthly_revenue"`
}
