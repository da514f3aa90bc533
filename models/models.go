package models

// All lists every model for migrations
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&OptionValue{},
		&Calculator{},
		&ProductPersonalization{},
		&OptionValueProductPersonalization{},
		&Order{},
		&LineItem{},
		&LineItemPersonalization{},
	}
}
