package config

// DefaultOCRPrompt instructs the vision model to transcribe a scanned page
// verbatim. Any summarizing by the model corrupts chunk positions downstream.
const DefaultOCRPrompt = `
Extract all text from this scanned page exactly as it appears on the page.
- Do NOT summarize, interpret, or add any commentary.
- Output only the text exactly as on the page, no less no more.
- If no text is found, return an empty string "".
`

// DefaultTranslatePrompt targets English and must keep layout intact so the
// chunker sees the same line structure the OCR produced.
const DefaultTranslatePrompt = `
You are a translator. Translate the following text to English exactly.
- If the text is already in English, leave it unchanged.
- Do not summarize, comment, or alter the content in any way.
- Preserve all formatting, spacing, and newlines.
- If the text is blank, return blank.
`
