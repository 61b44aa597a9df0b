// Package materialize writes a built dataset split to disk in the YOLO
// training layout:
//
//	<root>/<train|val>/images/<sha256(source_uri)><ext>
//	<root>/<train|val>/labels/<sha256(source_uri)>.txt
//	<root>/<train|val>/labels/classes.txt
//
// File stems are the hex SHA-256 of the source URI, so images sharing a file
// name under different prefixes never collide and the same source always maps
// to the same local name. Records with no boxes produce an image but no label
// file. Any fetch failure aborts the split.
package materialize
