package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveImagePrimaryReassigned(t *testing.T) {
	primary := ProductImage{ID: uuid.New(), URL: "/uploads/products/a.jpg", IsPrimary: true}
	second := ProductImage{ID: uuid.New(), URL: "/uploads/products/b.jpg"}
	third := ProductImage{ID: uuid.New(), URL: "/uploads/products/c.jpg"}

	images, removed := RemoveImage([]ProductImage{primary, second, third}, primary.ID)

	require.NotNil(t, removed)
	assert.Equal(t, primary.ID, removed.ID)
	require.Len(t, images, 2)
	assert.True(t, images[0].IsPrimary, "first remaining image should become primary")
	assert.False(t, images[1].IsPrimary)
}

func TestRemoveImageNonPrimary(t *testing.T) {
	primary := ProductImage{ID: uuid.New(), IsPrimary: true}
	second := ProductImage{ID: uuid.New()}

	images, removed := RemoveImage([]ProductImage{primary, second}, second.ID)

	require.NotNil(t, removed)
	require.Len(t, images, 1)
	assert.True(t, images[0].IsPrimary)
	assert.Equal(t, primary.ID, images[0].ID)
}

func TestRemoveImageLastOne(t *testing.T) {
	only := ProductImage{ID: uuid.New(), IsPrimary: true}

	images, removed := RemoveImage([]ProductImage{only}, only.ID)

	require.NotNil(t, removed)
	assert.Empty(t, images)
}

func TestRemoveImageNotFound(t *testing.T) {
	existing := ProductImage{ID: uuid.New()}

	images, removed := RemoveImage([]ProductImage{existing}, uuid.New())

	assert.Nil(t, removed)
	assert.Len(t, images, 1)
}

func TestPrimaryImage(t *testing.T) {
	p := Product{Images: []ProductImage{
		{ID: uuid.New(), URL: "first.jpg"},
		{ID: uuid.New(), URL: "flagged.jpg", IsPrimary: true},
	}}
	require.NotNil(t, p.PrimaryImage())
	assert.Equal(t, "flagged.jpg", p.PrimaryImage().URL)

	p.Images[1].IsPrimary = false
	assert.Equal(t, "first.jpg", p.PrimaryImage().URL)

	p.Images = nil
	assert.Nil(t, p.PrimaryImage())
}

func TestCategoryIsValid(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.IsValid(), string(c))
	}
	assert.False(t, Category("Sandwiches").IsValid())
	assert.False(t, Category("").IsValid())
}

func TestProductInputValidate(t *testing.T) {
	valid := ProductInput{
		Name:        "Classic Chocolate Cake",
		Description: "Rich, moist chocolate cake with chocolate ganache frosting.",
		Price:       25.99,
		Category:    CategoryCakes,
		Stock:       15,
	}
	assert.Empty(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*ProductInput)
		field  string
	}{
		{"missing name", func(in *ProductInput) { in.Name = "" }, "name"},
		{"name too long", func(in *ProductInput) { in.Name = string(make([]byte, 101)) }, "name"},
		{"missing description", func(in *ProductInput) { in.Description = "" }, "description"},
		{"description too long", func(in *ProductInput) { in.Description = string(make([]byte, 1001)) }, "description"},
		{"negative price", func(in *ProductInput) { in.Price = -0.01 }, "price"},
		{"bad category", func(in *ProductInput) { in.Category = "Sandwiches" }, "category"},
		{"negative stock", func(in *ProductInput) { in.Stock = -1 }, "stock"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			errs := in.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tc.field, errs[0].Field)
		})
	}
}
