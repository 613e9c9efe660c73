package constant

const (
	NoteVariantDefault = "default"
	NoteVariantPink    = "pink"
	NoteVariantCyan    = "cyan"
	NoteVariantOrange  = "orange"

	NoteMutationOpCreate = "create"
	NoteMutationOpUpdate = "update"
	NoteMutationOpDelete = "delete"

	AccessCodeLength = 4
)
