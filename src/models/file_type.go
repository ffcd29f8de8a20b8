package models

import (
	"errors"
	"fmt"
)

var ErrInvalidFileType = errors.New("invalid file type")

// FileType is one of the fixed collections a device can sync.
type FileType int

const (
	FileTypeCategories FileType = iota + 1
	FileTypeLocations
	FileTypeInventoryItems
	FileTypeTodoItems
	FileTypeSettings
)

// PayloadShape is the JSON shape a file type's payload must have.
type PayloadShape int

const (
	ShapeList PayloadShape = iota + 1
	ShapeObject
)

func (s PayloadShape) String() string {
	switch s {
	case ShapeList:
		return "array"
	case ShapeObject:
		return "object"
	}
	return "unknown"
}

var fileTypeNames = map[FileType]string{
	FileTypeCategories:     "categories",
	FileTypeLocations:      "locations",
	FileTypeInventoryItems: "inventoryItems",
	FileTypeTodoItems:      "todoItems",
	FileTypeSettings:       "settings",
}

// AllFileTypes lists every file type in display order.
func AllFileTypes() []FileType {
	return []FileType{
		FileTypeCategories,
		FileTypeLocations,
		FileTypeInventoryItems,
		FileTypeTodoItems,
		FileTypeSettings,
	}
}

// ParseFileType maps the wire name of a file type to its value. Names are case sensitive.
func ParseFileType(name string) (FileType, error) {
	for ft, n := range fileTypeNames {
		if n == name {
			return ft, nil
		}
	}
	if name == "" {
		return 0, fmt.Errorf("%w: file type is required", ErrInvalidFileType)
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFileType, name)
}

func (f FileType) String() string {
	if n, ok := fileTypeNames[f]; ok {
		return n
	}
	return fmt.Sprintf("FileType(%d)", int(f))
}

func (f FileType) Valid() bool {
	_, ok := fileTypeNames[f]
	return ok
}

// Shape reports whether the payload is a list of entries or a single object.
func (f FileType) Shape() PayloadShape {
	switch f {
	case FileTypeCategories, FileTypeLocations, FileTypeInventoryItems, FileTypeTodoItems:
		return ShapeList
	case FileTypeSettings:
		return ShapeObject
	}
	return 0
}

func (f FileType) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFileType, int(f))
	}
	return []byte(f.String()), nil
}

func (f *FileType) UnmarshalText(text []byte) error {
	ft, err := ParseFileType(string(text))
	if err != nil {
		return err
	}
	*f = ft
	return nil
}
