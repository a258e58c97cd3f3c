package onboarding

// RequiredDocumentTypes — обязательный набор документов для этапа DOCUMENTS.
var RequiredDocumentTypes = []string{
	"resume",
	"id_proof",
	"address_proof",
	"education_certificate",
	"photo",
}

var requiredDocumentSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(RequiredDocumentTypes))
	for _, t := range RequiredDocumentTypes {
		m[t] = struct{}{}
	}
	return m
}()

func KnownDocumentType(documentType string) bool {
	_, ok := requiredDocumentSet[documentType]
	return ok
}

// DocumentsComplete — true, если среди загруженных типов есть каждый
// обязательный. Повторы и порядок не учитываются.
func DocumentsComplete(uploadedTypes []string) bool {
	return len(MissingDocumentTypes(uploadedTypes)) == 0
}

// MissingDocumentTypes возвращает обязательные типы, которых ещё нет.
func MissingDocumentTypes(uploadedTypes []string) []string {
	have := make(map[string]struct{}, len(uploadedTypes))
	for _, t := range uploadedTypes {
		have[t] = struct{}{}
	}

	var missing []string
	for _, t := range RequiredDocumentTypes {
		if _, ok := have[t]; !ok {
			missing = append(missing, t)
		}
	}

	return missing
}
