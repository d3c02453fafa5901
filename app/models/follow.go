package models

import "time"

func (f *Follow) Validate() error {
	return validate.Struct(f)
}

func (f *Follow) BeforeCreate() {
	if f.Created.IsZero() {
		f.Created = time.Now()
	}
}
