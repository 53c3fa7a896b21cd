package extractor

// BuildTablePrompt returns the instruction sent alongside an invoice PDF.
func BuildTablePrompt() string {
	return `You are a table transcription assistant. The attached PDF is an invoice from a medical billing office listing the exams that were paid.

Transcribe EVERY table in the document, on every page, exactly as printed.

RULES:
- Copy cell text verbatim. Do not translate, correct spelling, reformat dates or merge rows.
- A cell that is empty or belongs to a vertically merged cell must be returned as "".
- Keep one array entry per printed row, with one string per column in header order.
- If a table continues on the next page without repeating its header, repeat the header of the table it continues.
- Ignore page headers, footers, logos and free text outside tables.
- Use the 1-based page number where the table starts.

Return ONLY a JSON object, with no markdown and no explanation, of this form:
{"tables":[{"page":1,"header":["Paciente","Fecha","Procedimiento"],"rows":[["ANA DIAZ","01/02/2024","RX TORAX"]]}]}

If the document contains no tables, return {"tables":[]}.`
}
