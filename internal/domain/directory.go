package domain

// Doctor is a read-model record patients browse before booking.
type Doctor struct {
	ID        string
	Name      string
	Specialty string
}

// Service is a bookable service offered by the clinic.
type Service struct {
	ID          string
	Name        string
	DurationMin int
}

// User is the minimal patient record the booking core needs: identity for
// holds and the email the uniqueness validator compares against.
type User struct {
	ID    string
	Email string
	Name  string
}
