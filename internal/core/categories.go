package core

// FallbackCategories is the set used when the category endpoint cannot be read.
func FallbackCategories() []Category {
	return []Category{
		{ID: "1", Name: "有點好笑", ColorHex: "#ff7675"},
		{ID: "2", Name: "很好笑", ColorHex: "#fdcb6e"},
		{ID: "3", Name: "超好笑", ColorHex: "#00cec9"},
	}
}

// DialogFallbackCategories lists the options offered by the create dialog when
// the category cache is empty.
func DialogFallbackCategories() []Category {
	return []Category{
		{Name: "有點好笑"},
		{Name: "很好笑"},
		{Name: "笑到歪腰"},
	}
}
