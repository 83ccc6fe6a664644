// Package seed loads recurrence rules from YAML fixture files:
//
//	rules:
//	  - name: Monthly GST Returns
//	    frequency: monthly
//	    day_of_month: 20
//	    start_date: 2024-01-01
//	    client_id: 3f1c...
//
// Files are validated in full before any rule is created.
package seed
