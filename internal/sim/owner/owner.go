// Package owner defines the id space shared by map cells and entities.
package owner

// Owner identifies who holds a cell or entity. Values below MaxCompanies
// are regular companies; the rest are reserved sentinels.
type Owner uint8

const (
	MaxCompanies = 15

	// None marks land nobody holds.
	None Owner = 0x10
	// Steward is the privileged synthetic owner used by scenario templates
	// for land that must stay editable but unclaimed.
	Steward Owner = 0x11
	// Invalid is the unset marker. Legacy streams that predate mandatory
	// owners leave this in place for the migration pass to resolve.
	Invalid Owner = 0xFF
)

func (o Owner) IsCompany() bool { return o < MaxCompanies }

func (o Owner) Valid() bool {
	return o < MaxCompanies || o == None || o == Steward
}
