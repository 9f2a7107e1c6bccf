package domain

type ApartmentType string

const (
	ApartmentTypeApartment ApartmentType = "apartment"
	ApartmentTypeVilla     ApartmentType = "villa"
	ApartmentTypeYacht     ApartmentType = "yacht"
	ApartmentTypeCar       ApartmentType = "car"
)

// Apartment is any bookable unit of the fleet, not only flats.
type Apartment struct {
	ID      int32         `json:"id"`
	Name    string        `json:"name"`
	Type    ApartmentType `json:"type"`
	Address string        `json:"address"`
}

func (t ApartmentType) Valid() bool {
	switch t {
	case ApartmentTypeApartment, ApartmentTypeVilla, ApartmentTypeYacht, ApartmentTypeCar:
		return true
	}
	return false
}
