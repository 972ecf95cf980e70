package app

import (
	"math"

	"booktracker/pkg/domain"
	"booktracker/pkg/validation"
)

const msgInvalidDate = "Date must be in the following format: YYYY-MM-DD"

// Length-style rules reject non-string values, so string fields need no
// separate type check.
var required = validation.Required("")

// positiveInt32 bounds counts stored in INTEGER columns.
func positiveInt32(msg string) validation.Rule {
	return validation.IntBetween(1, math.MaxInt32, msg)
}

func authorFields() []validation.FieldRules {
	return []validation.FieldRules{
		validation.Field("name", required,
			validation.Length(3, 255, "Name must be between 3 and 255 characters long")),
		validation.Field("birthdate",
			validation.ExactLength(10, "Birthdate must be 10 characters long"),
			validation.Date(msgInvalidDate)).Optional(),
	}
}

func genreFields() []validation.FieldRules {
	return []validation.FieldRules{
		validation.Field("name", required,
			validation.Length(3, 255, "Genre name must be between 3 and 255 characters long")),
	}
}

func bookFields() []validation.FieldRules {
	return []validation.FieldRules{
		validation.Field("authorId", required,
			validation.PositiveInt("Author ID must be a positive integer")),
		validation.Field("title", required,
			validation.Length(3, 255, "Title must be between 3 and 255 characters long")),
		validation.Field("format", required,
			validation.OneOf("Format must be one of: paper, ebook, audiobook",
				string(domain.FormatPaper), string(domain.FormatEbook), string(domain.FormatAudiobook))),
		validation.Field("pageCount",
			positiveInt32("Page count must be a positive integer")).Optional(),
		validation.Field("listeningLength",
			positiveInt32("Listening length must be a positive integer")).Optional(),
		validation.Field("narrator",
			validation.MaxLength(255, "Narrator name must not exceed 255 characters")).Optional(),
		validation.Field("genreId", required,
			validation.PositiveInt("Genre ID must be a positive integer")),
	}
}

func userFields() []validation.FieldRules {
	return []validation.FieldRules{
		validation.Field("username", required,
			validation.Length(3, 255, "Username must be between 3 and 255 characters long")),
		validation.Field("fullName", required,
			validation.Length(3, 255, "Full name must be between 3 and 255 characters long")),
		validation.Field("email", required,
			validation.Email("Email must be a valid email address"),
			validation.MaxLength(255, "Email must be no longer than 255 characters")),
		validation.Field("password", required,
			validation.Length(6, 255, "Password must be between 6 and 255 characters long")),
		validation.Field("birthdate", required,
			validation.ExactLength(10, "Birthdate must be a valid date"),
			validation.Date("Birthdate must be a valid date")),
	}
}

func loginFields() []validation.FieldRules {
	return []validation.FieldRules{
		validation.Field("username", required, validation.IsString(validation.MsgNotEmpty)),
		validation.Field("password", required, validation.IsString(validation.MsgNotEmpty)),
	}
}

func libraryFields() []validation.FieldRules {
	return []validation.FieldRules{
		bookIDField(),
		wasReadField(),
	}
}

func wasReadField() validation.FieldRules {
	return validation.Field("wasRead", required,
		validation.Boolean("Was read must be a boolean value (true or false)"))
}

func bookIDField() validation.FieldRules {
	return validation.Field("bookId", required,
		validation.PositiveInt("Book ID must be a positive integer"))
}

func reviewFields() []validation.FieldRules {
	return []validation.FieldRules{
		bookIDField(),
		validation.Field("rating", required,
			validation.IntBetween(1, 5, "Rating must be an integer between 1 and 5")),
		validation.Field("text",
			validation.MaxLength(500, "Text must not exceed 500 characters")).Optional(),
	}
}

func rankingFields() []validation.FieldRules {
	return []validation.FieldRules{
		validation.Field("title", required,
			validation.Length(3, 255, "Title must be between 3 and 255 characters long")),
		validation.Field("numerationType", required,
			validation.OneOf(`Numeration type must be either "decimal" or "roman"`,
				string(domain.NumerationDecimal), string(domain.NumerationRoman))),
	}
}

func recordPositionField() validation.FieldRules {
	return validation.Field("recordPosition", required,
		positiveInt32("Record position must be a positive integer"))
}

func rankingRecordFields() []validation.FieldRules {
	return []validation.FieldRules{
		bookIDField(),
		recordPositionField(),
	}
}
