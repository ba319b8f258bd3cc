package contact

import "github.com/dimitryivaniuta/contactdir/internal/query"

// Filterable and sortable contact attributes. These are the only query.Field
// values the engine ever hands to a store adapter; adapters translate them to
// columns (or accessors) and must error on anything else.
const (
	FieldEmail            query.Field = "email"
	FieldSecondaryEmail   query.Field = "secondaryEmail"
	FieldFirstName        query.Field = "firstName"
	FieldMiddleName       query.Field = "middleName"
	FieldLastName         query.Field = "lastName"
	FieldMobilePhone      query.Field = "mobilePhone"
	FieldWorkPhone        query.Field = "workPhone"
	FieldHomePhone        query.Field = "homePhone"
	FieldCompanyName      query.Field = "companyName"
	FieldJobTitle         query.Field = "jobTitle"
	FieldAddressLine1     query.Field = "addressLine1"
	FieldAddressLine2     query.Field = "addressLine2"
	FieldCity             query.Field = "city"
	FieldStateRegion      query.Field = "stateRegion"
	FieldPostalCode       query.Field = "postalCode"
	FieldCountryCode      query.Field = "countryCode"
	FieldTimeZone         query.Field = "timeZone"
	FieldLocale           query.Field = "locale"
	FieldPreferredChannel query.Field = "preferredChannel"
	FieldTags             query.Field = "tags"
	FieldBirthDate        query.Field = "birthDate"
	FieldGender           query.Field = "gender"
	FieldActive           query.Field = "active"
	FieldMarketingOptIn   query.Field = "marketingOptIn"
	FieldUnsubscribed     query.Field = "unsubscribed"
	FieldBounceCount      query.Field = "bounceCount"
	FieldCreatedAt        query.Field = "createdAt"
	FieldLastActivityAt   query.Field = "lastActivityAt"
	FieldLastEmailedAt    query.Field = "lastEmailedAt"
	FieldLastOpenedAt     query.Field = "lastOpenedAt"
	FieldLastClickedAt    query.Field = "lastClickedAt"
)
