// Package textproc holds the text primitives shared by ingestion and statistics:
// hashtag extraction, the stopword list, and the word tokenizer.
package textproc
