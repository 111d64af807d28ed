// Package editor is the interactive line editor of the shell.
//
// A Session consumes one key at a time, keeps the query buffer and cursor,
// and redraws a single prompt line after every key. Two independent
// completion facilities sit on top of it:
//
//   - history recall (Up/Down) walks earlier queries that start with the
//     text typed so far, newest first;
//   - symbol completion (Tab) replaces the word under the cursor with a
//     schema symbol, rotating through matches on repeated presses.
//
// Both are backed by an Index, normally a *trie.Trie. A query is submitted
// when Enter is pressed and the buffer ends with the statement terminator.
package editor
